// Package releases implements the release manager: it publishes build
// artifacts as immutable timestamped releases, moves the live pointer
// between them, prunes old releases and rolls back.
//
// Publishing and activation are separate steps. A published release is
// never live until Activate (or Rollback) points the live pointer at it.
//
// Readers never observe partial state. Release content is staged and made
// visible by one rename, and the live pointer is replaced by one rename.
// Concurrent Activate calls are last-writer-wins; callers that need a
// stronger ordering must serialise them externally.
package releases
