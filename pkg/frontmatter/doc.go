// Package frontmatter reads and writes YAML front matter on Markdown
// documents.
//
// A front matter block opens the document with a line containing only
// "---", holds YAML, and closes with another "---" line:
//
//	---
//	title: localvcs backup
//	---
//
//	Body text.
//
// LF and CRLF line endings are both accepted when parsing. [Format] always
// writes LF.
package frontmatter
