package view

import "github.com/sabio/subsurface-console/pkg/platform"

// FileItem is one entry of the file list as served to clients
type FileItem struct {
	DisplayName string             `json:"display_name"`
	Entry       platform.FileEntry `json:"entry"`
}

// Document is the JSON form of a page
type Document struct {
	ID       string                   `json:"id"`
	Files    []FileItem               `json:"files"`
	Status   *platform.StatusSnapshot `json:"status"`
	Query    string                   `json:"query"`
	Response string                   `json:"response"`
	Loading  bool                     `json:"loading"`
}

// NewDocument builds the JSON form of a page state
func NewDocument(id string, state State) Document {
	files := make([]FileItem, len(state.Files))
	for i, entry := range state.Files {
		files[i] = FileItem{
			DisplayName: entry.DisplayName(),
			Entry:       entry,
		}
	}

	return Document{
		ID:       id,
		Files:    files,
		Status:   state.Status,
		Query:    state.Query,
		Response: state.Response,
		Loading:  state.Loading,
	}
}

// Document returns the JSON form of the page
func (p *Page) Document() Document {
	return NewDocument(p.ID, p.View.State())
}
