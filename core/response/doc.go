// Package response builds handler.Response values and renders errors as the
// JSON envelope {"error": "...", "details": ...}.
//
// Handlers return a Response or an error; the router passes errors to an
// ErrorHandler such as the one built by NewJSONErrorHandler, which hides the
// cause of server errors when running in production.
package response
