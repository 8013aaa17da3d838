// Package transcribe is the client for the transcription service. It covers
// the request/response API (session lifecycle, uploads, status, exports) and
// the realtime WebSocket channel, and classifies every failure into a stable
// error kind callers can branch on.
package transcribe
