// Package workflow owns a single transcript-to-summary session.
//
// The Controller holds the transcript, prompt, summary, and title being worked
// on, plus a newest-first history of saved summaries that lives only for the
// life of the process. It calls the transcription, summarization, and email
// gateways through narrow interfaces (satisfied by internal/client) and turns
// their results and failures into state changes and short-lived notices.
//
// Operations are serialized per controller. Snapshot, History, and Notices
// never wait on an in-flight gateway call, so a UI can keep rendering while a
// summary is being generated.
package workflow
