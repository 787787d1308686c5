// Package normalisers turns born-digital documents into plain text without
// OCR. Each sub-package handles one format, selected by file extension.
//
// A Registry routes a document to the normaliser for its extension and
// falls back to OCR for everything else, so it can stand in for the
// tesseract extractor wherever a TextExtractor is expected.
package normalisers
