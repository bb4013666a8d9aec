package web

//go:generate go tool templ generate -path ./templates

import "embed"

// StaticFS holds the embedded stylesheet for the wizard and home page.
//
//go:embed static/*
var StaticFS embed.FS
