// Package mailer renders meeting summaries as HTML and delivers them through
// the Resend transactional email API.
//
// One Send call produces one POST {base}/emails carrying every recipient in a
// single "to" list. The body always comes from the fixed template in this
// package; callers cannot inject markup.
package mailer
