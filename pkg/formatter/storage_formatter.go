// File: pkg/formatter/storage_formatter.go
package formatter

import (
	"blobnav/pkg/storage"
	"fmt"
	"strings"
	"time"
)

type StorageFormatter struct{}

func NewStorageFormatter() *StorageFormatter {
	return &StorageFormatter{}
}

func (f *StorageFormatter) FormatContainerList(containers []storage.ContainerDescriptor) string {
	table := NewTable([]string{"CONTAINER NAME", "PROVIDER", "ACCESS", "USAGE", "CREATED"}).AlignRight(3)

	for _, c := range containers {
		createdFormatted := "-"
		if !c.CreatedAt.IsZero() {
			createdFormatted = c.CreatedAt.Format("2006-01-02")
		}

		table.AddRow([]string{
			c.Name,
			string(c.Provider),
			accessLabel(c.PublicAccess),
			storage.FormatBytes(c.UsageBytes),
			createdFormatted,
		})
	}

	return table.String()
}

// Renders one folder level: folders first, then files, followed by a count summary
func (f *StorageFormatter) FormatListing(listing storage.Listing) string {
	var sb strings.Builder

	location := listing.Container + "/" + listing.Path
	sb.WriteString(FormatSectionTitle(location))
	sb.WriteString("\n")

	if listing.Count() == 0 {
		sb.WriteString("(empty)\n")
		return sb.String()
	}

	table := NewTable([]string{"TYPE", "NAME", "SIZE"}).AlignRight(2)
	for _, h := range listing.Folders {
		table.AddRow([]string{"DIR", h.Name() + storage.Delimiter, "-"})
	}
	for _, h := range listing.Files {
		table.AddRow([]string{"FILE", h.Name(), storage.FormatBytes(h.SizeBytes)})
	}
	sb.WriteString(table.String())
	sb.WriteString("\n")
	sb.WriteString(Summary(listing))
	sb.WriteString("\n")

	return sb.String()
}

// Details for a single handle, e.g. after resolving a URL
func (f *StorageFormatter) FormatHandle(h storage.BlobHandle) string {
	var result string

	result += FormatHeaderSection(h.Container() + "/" + h.FullName())
	result += "\n\n"

	kind := "Folder"
	size := "-"
	if h.IsFile {
		kind = "File"
		size = storage.FormatBytes(h.SizeBytes)
	}

	detailsTable := NewTable([]string{"Parameter", "Value"})
	details := []struct {
		Key   string
		Value string
	}{
		{"Type", kind},
		{"Provider", string(h.Provider)},
		{"Emulated", fmt.Sprintf("%t", h.IsEmulated)},
		{"Size", size},
		{"URL", h.URL},
	}
	for _, detail := range details {
		detailsTable.AddRow([]string{detail.Key, detail.Value})
	}

	result += detailsTable.String()
	return result
}

// "2 folders, 1 object"
func Summary(listing storage.Listing) string {
	return fmt.Sprintf("%s, %s", pluralize(len(listing.Folders), "folder"), ObjectCount(len(listing.Files)))
}

func ObjectCount(n int) string {
	return pluralize(n, "object")
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func accessLabel(public bool) string {
	if public {
		return "public"
	}
	return "private"
}

// Serializable views used by the JSON and YAML encoders and the HTTP API

type ContainerView struct {
	Name         string     `json:"name" yaml:"name"`
	Provider     string     `json:"provider" yaml:"provider"`
	PublicAccess bool       `json:"publicAccess" yaml:"public_access"`
	UsageBytes   *int64     `json:"usageBytes,omitempty" yaml:"usage_bytes,omitempty"`
	CreatedAt    *time.Time `json:"createdAt,omitempty" yaml:"created_at,omitempty"`
}

type HandleView struct {
	Name       string `json:"name" yaml:"name"`
	FullName   string `json:"fullName" yaml:"full_name"`
	Container  string `json:"container" yaml:"container"`
	URL        string `json:"url" yaml:"url"`
	IsFile     bool   `json:"isFile" yaml:"is_file"`
	SizeBytes  int64  `json:"sizeBytes" yaml:"size_bytes"`
	Provider   string `json:"provider" yaml:"provider"`
	IsEmulated bool   `json:"isEmulated" yaml:"is_emulated"`
}

type ListingView struct {
	Container string       `json:"container" yaml:"container"`
	Path      string       `json:"path" yaml:"path"`
	Folders   []HandleView `json:"folders" yaml:"folders"`
	Files     []HandleView `json:"files" yaml:"files"`
}

func NewContainerView(c storage.ContainerDescriptor) ContainerView {
	view := ContainerView{
		Name:         c.Name,
		Provider:     string(c.Provider),
		PublicAccess: c.PublicAccess,
	}
	if c.UsageBytes >= 0 {
		usage := c.UsageBytes
		view.UsageBytes = &usage
	}
	if !c.CreatedAt.IsZero() {
		created := c.CreatedAt.UTC()
		view.CreatedAt = &created
	}
	return view
}

func NewContainerViews(containers []storage.ContainerDescriptor) []ContainerView {
	views := make([]ContainerView, 0, len(containers))
	for _, c := range containers {
		views = append(views, NewContainerView(c))
	}
	return views
}

func NewHandleView(h storage.BlobHandle) HandleView {
	return HandleView{
		Name:       h.Name(),
		FullName:   h.FullName(),
		Container:  h.Container(),
		URL:        h.URL,
		IsFile:     h.IsFile,
		SizeBytes:  h.SizeBytes,
		Provider:   string(h.Provider),
		IsEmulated: h.IsEmulated,
	}
}

func NewListingView(listing storage.Listing) ListingView {
	view := ListingView{
		Container: listing.Container,
		Path:      listing.Path,
		Folders:   make([]HandleView, 0, len(listing.Folders)),
		Files:     make([]HandleView, 0, len(listing.Files)),
	}
	for _, h := range listing.Folders {
		view.Folders = append(view.Folders, NewHandleView(h))
	}
	for _, h := range listing.Files {
		view.Files = append(view.Files, NewHandleView(h))
	}
	return view
}
