// Package capsule carries foreign blocks of Markdown source through the
// goldmark conversion stage unchanged.
//
// A Filter recognises one kind of block (for example a single-line HTML
// table) in raw source. During Encode every match is replaced by an opaque
// placeholder that goldmark treats as ordinary paragraph text. After parsing,
// the placeholder surfaces either as a paragraph made of nothing else
// (RecoverToken) or embedded in some larger text such as a code block
// (RecoverText). The recovered Descriptor is finally handed back to the
// owning filter's Write, which emits structured document nodes or a raw
// fallback node.
//
// Placeholders have the form
//
//	U+E010 <type> ':' <payload> U+E011
//
// where payload is the base64 (standard alphabet, unpadded) encoding of the
// msgpack-encoded Descriptor. The delimiters are Private Use Area runes, the
// same technique the pipeline uses for ==highlight== markers. Input already
// containing them is escaped by Encode (see Escape) and restored with
// Unescape once the document is built.
//
// A Registry is configured once and then only read, so a single Registry may
// serve many concurrent conversions. Everything else (working text,
// descriptors, writers) belongs to one conversion.
package capsule
