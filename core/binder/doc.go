// Package binder decodes request bodies and query strings into structs.
//
//	var req OrderRequest
//	if err := binder.Bind(r, &req, binder.JSON()); err != nil {
//		return response.Error(response.ErrBadRequest.WithError(err))
//	}
package binder
