package manifest

import "encoding/xml"

// moduleDoc is the Build/Module.xml document. Elements this tool does not manage are kept in
// Extra and written back unchanged.
type moduleDoc struct {
	XMLName       xml.Name     `xml:"Module"`
	Name          string       `xml:"Name"`
	DefaultAction string       `xml:"DefaultAction,omitempty"`
	Packages      *packagesDoc `xml:"Packages,omitempty"`
	Extra         []rawElement `xml:",any"`
}

type packagesDoc struct {
	Items []packageDoc `xml:"Package"`
}

type packageDoc struct {
	URI      string `xml:"Uri,attr"`
	Folder   string `xml:"Folder,attr"`
	GitRef   string `xml:"GitRef,attr,omitempty"`
	Optional bool   `xml:"Optional,attr,omitempty"`
}

type rawElement struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Inner   []byte     `xml:",innerxml"`
}

// definitionDoc is the root element of a Build/Projects/*.definition file. The element name
// doubles as the project kind when no Type attribute is present.
type definitionDoc struct {
	XMLName xml.Name
	Name    string `xml:"Name,attr"`
	Path    string `xml:"Path,attr"`
	Type    string `xml:"Type,attr"`
}
