// Package cookie builds and reads HTTP cookies with shared secure defaults.
//
//	cookies := cookie.New(cookie.WithSecure(production))
//	c, err := cookies.Cookie("admin_token", token, 8*time.Hour)
//	return response.WithCookie(response.JSON(user), c)
package cookie
