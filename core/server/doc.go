// Package server holds the HTTP server configuration and constants.
//
// The Config struct defines the HTTP port, the API key and the mode. In plan
// mode the API only computes plans. In apply mode run requests may write to the
// configured destination.
package server
