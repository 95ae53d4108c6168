// Package md2hatena converts HackMD markdown notes into HTML ready to paste
// into a Hatena Blog entry, relocating images to Hatena Fotolife.
//
// # Quick Start
//
// Parse a note, resolve its images, then convert:
//
//	conv, err := md2hatena.NewConverter(md2hatena.WithHeadingMin(3))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := conv.Parse(markdown); err != nil {
//	    log.Fatal(err)
//	}
//
//	res := md2hatena.NewResolver(fetcher, uploader,
//	    md2hatena.WithCachePath("images.txt"),
//	    md2hatena.WithStagingDir(".md2hatena-imgs"),
//	)
//	if err := conv.Resolve(ctx, res); err != nil {
//	    log.Fatal(err)
//	}
//
//	html, err := conv.Convert(ctx)
//
// Skipping Resolve leaves every image pointing at its original source.
//
// # Conversion Pipeline
//
// The document is parsed twice and never mutated:
//
//  1. Preprocessing (line endings, front matter)
//  2. Scan: collect pending image URLs and their alt text
//  3. Resolve: fetch, stage, upload, and record each pending image
//  4. Rewrite: render HTML with Hatena figures, shifted headings,
//     ==highlight== marks, and framed code blocks
//
// # Image Cache
//
// The resolver keeps a plain text cache, one "original -> destination"
// pair per line. A cached image is never fetched or uploaded again, and
// each new pair is appended as soon as its upload succeeds, so an
// interrupted run resumes where it stopped.
//
// # Code Blocks
//
// Fenced code blocks are framed by one of three renderers chosen by name:
//
//   - "pure": plain <pre><code class="language-X">
//   - "highlightjs": highlight.js markup with a file title; the loader
//     script is appended once after the body
//   - "chroma": server-side highlighting with an embedded stylesheet
//
// # Error Handling
//
// Errors wrap package sentinels and can be checked with errors.Is:
//
//	if errors.Is(err, md2hatena.ErrResolve) {
//	    // an image could not be fetched or uploaded
//	}
package md2hatena
