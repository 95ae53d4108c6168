// Package pipeline implements the HackMD-to-Hatena rewrite pipeline.
//
// A note goes through these stages:
//   - Preprocessing (line normalization, front matter)
//   - Scan: a first parse collecting pending image URLs and their alt text
//   - Rewrite: a second, independent parse rendered to HTML with images
//     replaced by Fotolife figures, headings shifted, ==highlight== rendered
//     as <mark>, and code blocks framed by the configured code block renderer
//
// Both passes parse the same source from scratch. They share no parse tree,
// only the pending and resolved collections. Uploading images is handled by
// the root md2hatena package between the two passes.
package pipeline
