// internal/domain/models/resourcetypes.go
package models

import (
	"net/url"
	"path"
	"strings"
)

// Canonical resource type tags stored in Resource.Type.
const (
	ResourceTypePDF  = "PDF"
	ResourceTypeDOC  = "DOC"
	ResourceTypePPT  = "PPT"
	ResourceTypeXLS  = "XLS"
	ResourceTypeTXT  = "TXT"
	ResourceTypeFile = "FILE" // catch-all; default
)

// ResourceTypes is the full set of allowed resource type tags.
var ResourceTypes = []string{
	ResourceTypePDF,
	ResourceTypeDOC,
	ResourceTypePPT,
	ResourceTypeXLS,
	ResourceTypeTXT,
	ResourceTypeFile,
}

// DefaultResourceType is used when no type can be derived.
const DefaultResourceType = ResourceTypeFile

var extensionTypes = map[string]string{
	"pdf":  ResourceTypePDF,
	"doc":  ResourceTypeDOC,
	"docx": ResourceTypeDOC,
	"ppt":  ResourceTypePPT,
	"pptx": ResourceTypePPT,
	"xls":  ResourceTypeXLS,
	"xlsx": ResourceTypeXLS,
	"txt":  ResourceTypeTXT,
}

// ResourceTypeFromURL derives the type tag from the file extension of a URL's path.
// Query strings and fragments are ignored.
func ResourceTypeFromURL(raw string) string {
	p := raw
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		p = u.Path
	}
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(p)), ".")
	if t, ok := extensionTypes[ext]; ok {
		return t
	}
	return DefaultResourceType
}

// IsResourceType reports whether t is one of the canonical tags.
func IsResourceType(t string) bool {
	for _, v := range ResourceTypes {
		if v == t {
			return true
		}
	}
	return false
}
