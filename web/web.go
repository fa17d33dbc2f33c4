// Package web embeds the companion page and the map template.
package web

import (
	"embed"
	"html/template"
	"io/fs"
)

//go:embed static templates
var files embed.FS

// Static serves index.html and friends at the site root.
func Static() fs.FS {
	sub, err := fs.Sub(files, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// MapTemplate renders the /map page. It expects MapPage.
var MapTemplate = template.Must(template.ParseFS(files, "templates/map.html"))

type MapPage struct {
	Title    string
	EmbedURL string
}
