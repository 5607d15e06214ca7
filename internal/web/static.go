package web

import (
	"embed"
)

// staticFiles holds the page, script and style sheet of the UI.
//
//go:embed static/*
var staticFiles embed.FS
