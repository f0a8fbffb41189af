// Package logx wraps zerolog behind a small Logger/Field API so components
// can hold a logger that stays live across runtime config changes.
package logx
