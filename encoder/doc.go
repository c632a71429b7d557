// Package encoder serializes execution outcomes for transport.
//
// The encoder package renders an execution result plus its artifact set into
// a single tagged-section text document wrapped in one outer <result> tag.
// The grammar is fixed and parseable: callers extract sections with
// ExtractBlock and branch on the <status> section, never on transport-level
// success. User content that could collide with the section delimiters is
// escaped so closing tags inside output or error text cannot corrupt the
// document structure.
//
// The encoder is callable on a bare execution result with no files and no
// archive, producing a reduced document; artifact bookkeeping failures must
// never prevent a caller from receiving a result.
package encoder
