// Package docfill fills document templates with data.
//
// A template is a text, HTML, Markdown, DOCX or XLSX document containing
// placeholders such as ${*customer.name} or ${For *value:"orders"}. Filling
// runs the placeholders through a chain of commands that replace text,
// repeat or drop areas of the document and import other templates.
//
// Basic Usage:
//
//	eng := docfill.New()
//	tmpl, err := eng.PrepareFile("invoice.docx")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	model, err := datamodel.LoadFile("invoice.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	out, err := os.Create("filled.docx")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer out.Close()
//
//	if err := eng.Fill(context.Background(), tmpl, model, out); err != nil {
//	    log.Fatal(err)
//	}
//
// Placeholder Syntax:
//
// Values: ${*customer.name}, ${$item}, ${String *value:"total", onNull:"empty"}
//
// Conditions: ${If *status:"paid"}...${EndIf}
//
// Loops: ${For *value:"orders", as:"order"}...${EndFor}
//
// Variables: ${Push key:"title", value:"Invoice"}, ${Pop key:"title"}
//
// Imports: ${Import name:"letterhead"}
//
// The packages under pkg/docfill implement the pieces: tree (the document
// tree and area algebra), datamodel (models, paths and variables),
// placeholder (detection and attribute parsing), condition (condition
// trees), engine (the command pipeline) and format/* (document adapters).
package docfill
