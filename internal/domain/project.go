package domain

import "fmt"

// Project is the namespace a translation key belongs to
type Project string

const (
	ProjectWeb     Project = "Holidu Web"
	ProjectMobile  Project = "Mobile"
	ProjectBackend Project = "Backend"
	ProjectAdmin   Project = "Admin"
	ProjectAPI     Project = "API"
	ProjectCMS     Project = "CMS"
)

// Projects lists the known projects in display order
var Projects = []Project{
	ProjectWeb,
	ProjectMobile,
	ProjectBackend,
	ProjectAdmin,
	ProjectAPI,
	ProjectCMS,
}

// ParseProject returns the project with the exact given name
func ParseProject(name string) (Project, error) {
	for _, p := range Projects {
		if string(p) == name {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownProject, name)
}
