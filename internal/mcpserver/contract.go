package mcpserver

// NoteFormatContract describes the note layout produced by create_note, for
// LLM consumers that want to generate compatible content themselves.
const NoteFormatContract = `# Munin Note Format

Every note created by Munin follows this structure.

## Structure

` + "```" + `markdown
---
title: Human-readable title
created: 2025-01-20T14:30:00Z
tags: tag-one, tag-two
---

Body text in standard Markdown, passed through verbatim.
` + "```" + `

## Rules

1. The ` + "`" + `---` + "`" + ` fences delimit the header block and must be the first thing
   in the file (no leading blank lines).
2. ` + "`" + `title` + "`" + ` is the note title as given to create_note.
3. ` + "`" + `created` + "`" + ` is an RFC 3339 timestamp assigned at creation.
4. ` + "`" + `tags` + "`" + ` is a comma-joined list; it may be empty.
5. A single blank line separates the header from the body.
6. The filename is derived from the title: lower-case, non-alphanumeric runs
   collapsed to a dash, with a counter suffix (` + "`" + `-2` + "`" + `, ` + "`" + `-3` + "`" + `, ...) when the
   name is already taken. Existing notes are never overwritten.
7. Encoding is UTF-8.

## Example

` + "```" + `markdown
---
title: Weekly standup
created: 2025-01-20T14:30:00Z
tags: meeting-notes, project-x
---

# Weekly standup

Attendees: Alice, Bob.
` + "```" + `
`
