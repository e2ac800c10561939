// Package jwt signs and verifies HMAC-SHA256 JSON Web Tokens.
//
// It is a thin layer over github.com/golang-jwt/jwt/v5 that pins the signing
// method, enforces a minimum key length and maps library errors onto the
// package sentinels.
//
//	svc, err := jwt.NewFromString(secret, jwt.WithIssuer("storefront"))
//
//	type Claims struct {
//		jwt.StandardClaims
//		Role string `json:"role"`
//	}
//
//	token, err := svc.Generate(&Claims{
//		StandardClaims: jwt.StandardClaims{
//			Subject:   userID,
//			ExpiresAt: jwt.At(time.Now().Add(8 * time.Hour)),
//		},
//		Role: "admin",
//	})
//
//	var claims Claims
//	if err := svc.Parse(token, &claims); errors.Is(err, jwt.ErrExpiredToken) {
//		// ask the user to sign in again
//	}
package jwt
