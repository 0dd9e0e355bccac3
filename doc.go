// Package md2doc converts Markdown to a structured document tree and back.
//
// # Quick Start
//
// Create a converter and convert Markdown:
//
//	conv, err := md2doc.NewConverter()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := conv.Convert(ctx, md2doc.Input{
//	    Markdown: "# Hello\n\n<table><tr><td>x</td></tr></table>",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	out, err := conv.Render(ctx, result.Document, md2doc.FormatJSON, "")
//
// The result holds the document (result.Document) and capsule statistics
// (result.Stats): how many foreign blocks were captured, how many became
// native nodes, how many were kept raw, and how many placeholders could not
// be recovered.
//
// # Conversion Pipeline
//
// The forward direction follows these stages:
//
//  1. Markdown preprocessing (line normalization, capsule encoding, ==highlight== syntax)
//  2. Parsing via Goldmark (CommonMark + GFM)
//  3. Walking the syntax tree into the document, recovering capsules
//  4. Writing each recovered capsule through its filter (structured or raw)
//
// The reverse direction serializes a document back to Markdown (ToMarkdown)
// and renders an HTML preview from that Markdown (ToHTML).
//
// # Capsules
//
// A capsule filter claims whole lines of the source, such as a single-line
// HTML table, and replaces them with an inert placeholder before parsing.
// When the placeholder comes back the filter writes the block: the built-in
// table filter promotes tables it understands into table nodes and keeps
// anything else as a raw html block. Custom filters are added with
// WithFilters; every filter needs a unique type tag (see NewFilterType).
//
// # Configuration
//
// Use functional options to customize the converter:
//
//	conv, err := md2doc.NewConverter(
//	    md2doc.WithTimeout(10 * time.Second),
//	    md2doc.WithLogger(logger),
//	    md2doc.WithHighlightStyle("monokai"),
//	)
//
// # Parallel Processing
//
// A Converter is safe for concurrent use. For batch work, ConverterPool
// bounds the number of converters in flight and shares one filter registry
// between them:
//
//	pool, err := md2doc.NewConverterPool(4)
//	conv := pool.Acquire()
//	defer pool.Release(conv)
package md2doc
