package config

const (
	defaultServerBind           = "127.0.0.1:8787"
	defaultMaxUploadMiB         = 100
	defaultLockFile             = "~/.local/share/minutes/minutesd.lock"
	defaultLLMBaseURL           = "https://api.openai.com/v1/chat/completions"
	defaultLLMModel             = "gpt-4o-mini"
	defaultLLMMaxTokens         = 2000
	defaultLLMTemperature       = 0.3
	defaultLLMTimeoutSeconds    = 120
	defaultTranscriptionMode    = ModeAsync
	defaultAsyncBaseURL         = "https://api.assemblyai.com/v2"
	defaultSyncBaseURL          = "https://api.openai.com/v1"
	defaultSyncModel            = "whisper-1"
	defaultPollIntervalSeconds  = 2
	defaultMaxWaitSeconds       = 600
	defaultTranscriptionTimeout = 300
	defaultEmailBaseURL         = "https://api.resend.com"
	defaultEmailFrom            = "Meeting Summarizer <onboarding@resend.dev>"
	defaultEmailTimeoutSeconds  = 30
	defaultClientServerURL      = "http://127.0.0.1:8787"
	defaultNoticeSeconds        = 5
	defaultDownloadDir          = "~/Downloads"
	defaultClientTimeoutSeconds = 900
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultLogDir               = "~/.local/share/minutes/logs"
	defaultPrompt               = "Summarize the key decisions, action items with owners, and open questions."
)

// Transcription modes.
const (
	ModeSync  = "sync"
	ModeAsync = "async"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Server: Server{
			Bind:         defaultServerBind,
			MaxUploadMiB: defaultMaxUploadMiB,
			LockFile:     defaultLockFile,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			MaxTokens:      defaultLLMMaxTokens,
			Temperature:    defaultLLMTemperature,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Transcription: Transcription{
			Mode:                defaultTranscriptionMode,
			PollIntervalSeconds: defaultPollIntervalSeconds,
			MaxWaitSeconds:      defaultMaxWaitSeconds,
			TimeoutSeconds:      defaultTranscriptionTimeout,
		},
		Email: Email{
			BaseURL:        defaultEmailBaseURL,
			From:           defaultEmailFrom,
			TimeoutSeconds: defaultEmailTimeoutSeconds,
		},
		Client: Client{
			ServerURL:      defaultClientServerURL,
			NoticeSeconds:  defaultNoticeSeconds,
			DownloadDir:    defaultDownloadDir,
			DefaultPrompt:  defaultPrompt,
			TimeoutSeconds: defaultClientTimeoutSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
			Dir:    defaultLogDir,
		},
	}
}
