package netscape

import (
	"fmt"
	"strings"
)

// ExportBookmark is a denormalized bookmark snapshot supplied for export.
// CreatedAt is a millisecond epoch; FolderID is empty for root bookmarks.
type ExportBookmark struct {
	Title     string
	URL       string
	Favicon   string
	CreatedAt int64
	FolderID  string
}

// ExportFolder is a denormalized folder snapshot supplied for export.
// ParentID is empty for top-level folders. The folder set must be acyclic.
type ExportFolder struct {
	ID        string
	Name      string
	ParentID  string
	CreatedAt int64
}

const fileHeader = `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<!-- This is an automatically generated file.
     It will be read and overwritten.
     DO NOT EDIT! -->
<META HTTP-EQUIV="Content-Type" CONTENT="text/html; charset=UTF-8">
<TITLE>Bookmarks</TITLE>
<H1>Bookmarks</H1>
`

// toolbarFolderName labels the synthetic wrapper folder so that browsers
// place the re-imported tree on the visible bookmarks toolbar.
const toolbarFolderName = "Bookmarks bar"

var (
	// Attribute values and text content use deliberately different escape
	// sets; browsers depend on both for re-import fidelity.
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", "'", "&#39;")
)

// Generate serializes bookmarks and folders into Netscape bookmark HTML.
// All content is wrapped in a synthetic personal-toolbar folder, root
// bookmarks first, then each top-level folder recursively (child folders
// before the folder's own bookmarks).
func Generate(bookmarks []ExportBookmark, folders []ExportFolder) string {
	childFolders := make(map[string][]ExportFolder)
	var topFolders []ExportFolder
	for _, f := range folders {
		if f.ParentID == "" {
			topFolders = append(topFolders, f)
		} else {
			childFolders[f.ParentID] = append(childFolders[f.ParentID], f)
		}
	}

	byFolder := make(map[string][]ExportBookmark)
	for _, b := range bookmarks {
		byFolder[b.FolderID] = append(byFolder[b.FolderID], b)
	}

	var sb strings.Builder
	sb.WriteString(fileHeader)
	sb.WriteString("<DL><p>\n")
	fmt.Fprintf(&sb, "    <DT><H3 PERSONAL_TOOLBAR_FOLDER=\"true\">%s</H3>\n", textEscaper.Replace(toolbarFolderName))
	sb.WriteString("    <DL><p>\n")

	for _, b := range byFolder[""] {
		writeBookmark(&sb, b, 2)
	}
	for _, f := range topFolders {
		writeFolder(&sb, f, childFolders, byFolder, 2)
	}

	sb.WriteString("    </DL><p>\n")
	sb.WriteString("</DL><p>\n")
	return sb.String()
}

func writeFolder(sb *strings.Builder, f ExportFolder, childFolders map[string][]ExportFolder, byFolder map[string][]ExportBookmark, depth int) {
	pad := strings.Repeat("    ", depth)
	fmt.Fprintf(sb, "%s<DT><H3 ADD_DATE=\"%d\">%s</H3>\n", pad, epochSeconds(f.CreatedAt), textEscaper.Replace(f.Name))
	fmt.Fprintf(sb, "%s<DL><p>\n", pad)

	for _, child := range childFolders[f.ID] {
		writeFolder(sb, child, childFolders, byFolder, depth+1)
	}
	for _, b := range byFolder[f.ID] {
		writeBookmark(sb, b, depth+1)
	}

	fmt.Fprintf(sb, "%s</DL><p>\n", pad)
}

func writeBookmark(sb *strings.Builder, b ExportBookmark, depth int) {
	pad := strings.Repeat("    ", depth)
	fmt.Fprintf(sb, "%s<DT><A HREF=\"%s\" ADD_DATE=\"%d\"", pad, attrEscaper.Replace(b.URL), epochSeconds(b.CreatedAt))
	if b.Favicon != "" {
		fmt.Fprintf(sb, " ICON=\"%s\"", attrEscaper.Replace(b.Favicon))
	}
	fmt.Fprintf(sb, ">%s</A>\n", textEscaper.Replace(b.Title))
}

// epochSeconds converts millisecond epoch timestamps to seconds using floor
// division, matching what browsers write.
func epochSeconds(ms int64) int64 {
	s := ms / 1000
	if ms%1000 < 0 {
		s--
	}
	return s
}
