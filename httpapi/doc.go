// Package httpapi serves the credauth engine over HTTP with Gin.
//
// Every failure is rendered as {"error": kind, "message": text} with the
// status from [StatusFor]. Internal errors never expose their cause. The
// password reset request endpoint never returns the reset token.
package httpapi
