package models

import "encoding/json"

type (
	// ServerStatus is the JSON document a server returns to a status
	// request. Online and Max are pointers so that an absent field can be
	// told apart from a zero value; Description stays raw because servers
	// send either a plain string or a chat component object.
	ServerStatus struct {
		Version     Version         `json:"version"`
		Players     *Players        `json:"players"`
		Description json.RawMessage `json:"description"`
		Favicon     string          `json:"favicon"`
	}

	Version struct {
		Name     string `json:"name"`
		Protocol int    `json:"protocol"`
	}

	Players struct {
		Max    *int     `json:"max"`
		Online *int     `json:"online"`
		Sample []Sample `json:"sample"`
	}

	Sample struct {
		Name string `json:"name"`
		ID   string `json:"id"`
	}
)
