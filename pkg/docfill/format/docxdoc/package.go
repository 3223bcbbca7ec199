package docxdoc

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"
)

// MainPart is the body part every DOCX package carries.
const MainPart = "word/document.xml"

// Relationship types of the parts filled next to the body.
const (
	RelTypeHeader = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/header"
	RelTypeFooter = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/footer"
)

// Package gives indexed access to the parts of a DOCX zip.
type Package struct {
	reader *zip.Reader
	Parts  map[string]*zip.File
}

// Relationship is one entry of a .rels part.
type Relationship struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr,omitempty"`
}

// Relationships is the root of a .rels part.
type Relationships struct {
	XMLName      xml.Name       `xml:"Relationships"`
	Relationship []Relationship `xml:"Relationship"`
}

// NewPackage indexes the zip in r and checks that it holds a body part.
func NewPackage(r io.ReaderAt, size int64) (*Package, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to read zip file: %w", err)
	}
	p := &Package{reader: zr, Parts: make(map[string]*zip.File, len(zr.File))}
	for _, f := range zr.File {
		p.Parts[f.Name] = f
	}
	if _, ok := p.Parts[MainPart]; !ok {
		return nil, fmt.Errorf("not a valid DOCX file: missing %s", MainPart)
	}
	return p, nil
}

// OpenFile reads a whole DOCX file into memory.
func OpenFile(name string) (*Package, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return NewPackage(bytes.NewReader(data), int64(len(data)))
}

// Part returns the uncompressed content of a part.
func (p *Package) Part(name string) ([]byte, error) {
	f, ok := p.Parts[name]
	if !ok {
		return nil, fmt.Errorf("part %s not found", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open part %s: %w", name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read part %s: %w", name, err)
	}
	return data, nil
}

// PartNames lists the parts in zip order.
func (p *Package) PartNames() []string {
	names := make([]string, 0, len(p.reader.File))
	for _, f := range p.reader.File {
		names = append(names, f.Name)
	}
	return names
}

// Relationships returns the relationships of a part. A part without a
// .rels file has none.
func (p *Package) Relationships(part string) ([]Relationship, error) {
	dir, base := path.Split(part)
	relPath := dir + "_rels/" + base + ".rels"
	if _, ok := p.Parts[relPath]; !ok {
		return nil, nil
	}
	data, err := p.Part(relPath)
	if err != nil {
		return nil, err
	}
	var rels Relationships
	if err := xml.Unmarshal(data, &rels); err != nil {
		return nil, fmt.Errorf("failed to parse relationships of %s: %w", part, err)
	}
	return rels.Relationship, nil
}

// HeaderFooterParts returns the header and footer parts the body refers
// to, sorted by name.
func (p *Package) HeaderFooterParts() ([]string, error) {
	rels, err := p.Relationships(MainPart)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, r := range rels {
		if r.Type != RelTypeHeader && r.Type != RelTypeFooter {
			continue
		}
		name := resolveTarget(MainPart, r.Target)
		if _, ok := p.Parts[name]; ok {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out, nil
}

func resolveTarget(source, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return path.Join(path.Dir(source), target)
}

// write copies every part into w, replacing the content of the parts in
// override.
func (p *Package) write(w io.Writer, override map[string][]byte) error {
	zw := zip.NewWriter(w)
	for _, f := range p.reader.File {
		data, ok := override[f.Name]
		if !ok {
			if err := zw.Copy(f); err != nil {
				return fmt.Errorf("failed to copy %s: %w", f.Name, err)
			}
			continue
		}
		fw, err := zw.CreateHeader(&zip.FileHeader{Name: f.Name, Method: zip.Deflate, Modified: f.Modified})
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", f.Name, err)
		}
		if _, err := fw.Write(data); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish zip: %w", err)
	}
	return nil
}
