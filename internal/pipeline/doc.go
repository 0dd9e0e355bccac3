// Package pipeline converts between Markdown text and the docmodel tree.
//
// The forward direction runs in stages:
//   - Preprocessing (line endings, capsule encoding, ==highlight== markers)
//   - Parsing with goldmark (CommonMark + GFM)
//   - Walking the goldmark AST into a docmodel.Builder, recovering capsules
//     along the way
//
// The reverse direction serializes a document back to Markdown with
// MarkdownWriter. Tables leave as single-line HTML when they have no pipe
// table form, which routes them through the capsule again on the next parse.
// GoldmarkConverter renders that Markdown to a standalone HTML preview.
package pipeline
