// Package domain defines core data models and interfaces shared across the app.
// Plain types live in domain/types and contracts in domain/interfaces; this
// package re-exports both along with the sentinel errors every layer maps
// rejections to.
package domain
