// Package transcribe converts uploaded audio into transcript text.
//
// Two providers sit behind the Service interface. The sync provider posts a
// multipart form to an OpenAI-compatible /audio/transcriptions endpoint and
// reads the text back directly. The async provider uploads raw bytes,
// submits a transcript job, and polls the job every PollInterval until it
// reports completed or error. A job error is final and is never retried.
//
// MaxWait bounds the poll loop and fails with services.ErrTimeout once
// exceeded; zero leaves it unbounded so only context cancellation ends it.
package transcribe
