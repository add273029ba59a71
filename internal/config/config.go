package config

import (
	"io/fs"
	"time"
)

// -----------------------------------------------------------------------------
// Build Information
// -----------------------------------------------------------------------------

// Build variables are injected via -ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// UserAgent identifies the HTTP client.
var UserAgent = "Birthday-Liberator/" + Version

// -----------------------------------------------------------------------------
// Application Constants
// -----------------------------------------------------------------------------

const (
	AppName           = "Birthday Liberator"
	AppID             = "com.github.tartampluch.birthday-liberator"
	CommandName       = "birthday-liberator"
	KeyringService    = "com.github.tartampluch.birthday-liberator"
	LocalhostBindAddr = "127.0.0.1"
	LogFileName       = "app.log"
	EnvPrefix         = "BIRTHDAY_LIBERATOR"
	SettingsFileName  = "birthday-liberator"
	SettingsFileType  = "yaml"
)

// -----------------------------------------------------------------------------
// Exit Codes
// -----------------------------------------------------------------------------

const (
	ExitCodeSuccess = 0
	ExitCodeError   = 1
)

// -----------------------------------------------------------------------------
// System & File Permissions
// -----------------------------------------------------------------------------

const (
	// FilePermUserRW represents -rw------- (Read/Write for owner only).
	// Used for sensitive files like logs and settings.
	FilePermUserRW fs.FileMode = 0600

	// FilePermShared represents -rw-r--r--, used for generated calendars.
	FilePermShared fs.FileMode = 0644

	// DirPermUserRWX represents drwx------ (Read/Write/Exec for owner only).
	DirPermUserRWX fs.FileMode = 0700

	// ChannelBufferSize defines the standard buffer size for internal signaling channels.
	ChannelBufferSize = 1
)

// -----------------------------------------------------------------------------
// CLI Commands, Flags & Descriptions
// -----------------------------------------------------------------------------

const (
	FlagConfig     = "config"
	FlagDebug      = "debug"
	FlagOutput     = "output"
	FlagURL        = "url"
	FlagUser       = "user"
	FlagStrict     = "strict"
	FlagStableUIDs = "stable-uids"
	FlagLang       = "lang"
	FlagPort       = "port"
	FlagInput      = "input"
	FlagRefresh    = "refresh"
	FlagFormat     = "format"
	FlagForget     = "forget"

	FlagDescConfig     = "Settings file (YAML)"
	FlagDescDebug      = "Enable debug logging"
	FlagDescOutput     = "Destination .ics file ('-' writes to stdout)"
	FlagDescURL        = "Fetch the contact export from this http(s) URL"
	FlagDescUser       = "HTTP Basic Auth user for --url (password is read from the keyring)"
	FlagDescStrict     = "Write strict RFC 5545 output (CRLF, exclusive DTEND)"
	FlagDescStableUIDs = "Derive event UIDs from contact data instead of random UUIDs"
	FlagDescLang       = "Language of event texts"
	FlagDescPort       = "Port of the local HTTP server"
	FlagDescInput      = "Local contact export to convert"
	FlagDescRefresh    = "Cron spec for re-converting the configured source"
	FlagDescFormat     = "Output format: table or yaml"
	FlagDescForget     = "Remove the stored password instead of setting it"

	MsgVersionOutput = "%s version %s (%s, %s) %s/%s\n"
)

// Commands.
const (
	CmdRoot     = CommandName
	CmdConvert  = "convert [input]"
	CmdServe    = "serve"
	CmdInspect  = "inspect <file.ics>"
	CmdLogin    = "login <user>"
	CmdConfig   = "config"
	CmdInit     = "init [path]"
	CmdVersion  = "version"
	ShortRoot   = "Turn a contact export into a birthday calendar"
	LongRoot    = "Birthday Liberator reads a Google Contacts CSV or vCard export and writes an iCalendar file with one yearly event per birthday."
	ShortConv   = "Convert a contact export into an .ics file"
	ShortServe  = "Serve the calendar over HTTP and keep it refreshed"
	ShortInsp   = "List the events of a calendar with their next occurrence"
	ShortLogin  = "Store the password of the HTTP source in the OS keyring"
	ShortConfig = "Manage the settings file"
	ShortInit   = "Write a default settings file"
	ShortVer    = "Print version information"
)

// Settings keys, shared by viper, flags and the YAML file.
const (
	KeyInput      = "input"
	KeyOutput     = "output"
	KeyLanguage   = "language"
	KeyStrict     = "strict"
	KeyStableUIDs = "stable_uids"
	KeyDebug      = "debug"
	KeySourceURL  = "source.url"
	KeySourceUser = "source.user"
	KeyServerPort = "server.port"
	KeyRefresh    = "server.refresh"
)

// -----------------------------------------------------------------------------
// Default Values & Business Logic
// -----------------------------------------------------------------------------

const (
	SourceModeWeb     = "web"
	SourceModeLocal   = "local"
	SourceModeNone    = ""
	DefaultPort       = "18080"
	DefaultOutput     = "birthdays.ics"
	DefaultLanguage   = "en"
	DefaultRefresh    = "@every 1h"
	StdioPath         = "-"
	UIDSalt           = "birthday-liberator-v1-" // Salt for deterministic UID generation
	OutputTable       = "table"
	OutputYAML        = "yaml"
	DefaultUploadName = "birthdays.ics"
)

// SupportedLanguages defines the list of available event text languages (ISO 639-1).
var SupportedLanguages = []string{"en", "fr"}

// -----------------------------------------------------------------------------
// Tabular Input (Contact Export)
// -----------------------------------------------------------------------------

const (
	Delimiter = ','
	Quote     = '"'

	// Header labels are matched by exact, case-sensitive equality.
	ColFirstName  = "First Name"
	ColMiddleName = "Middle Name"
	ColLastName   = "Last Name"
	ColBirthday   = "Birthday"

	VCardBegin = "BEGIN:VCARD"
)

// -----------------------------------------------------------------------------
// Standards: iCalendar & vCard
// -----------------------------------------------------------------------------

const (
	// Document literals. These never vary per invocation.
	ICalBegin   = "BEGIN:VCALENDAR"
	ICalEnd     = "END:VCALENDAR"
	ICalVersion = "2.0"
	ICalProdid  = "-//Google Birthday Liberator//Birthday Events//EN"
	ICalScale   = "GREGORIAN"
	ICalMethod  = "PUBLISH"
	ICalFreq    = "FREQ=YEARLY"
	ICalTransp  = "TRANSPARENT"
	ICalClass   = "PUBLIC"
	ICalTrigger = "PT0S"
	ICalEmail   = "EMAIL"
	ICalDisplay = "DISPLAY"
	ICalDomain  = "birthday-liberator"
	CompEvent   = "VEVENT"
	CompAlarm   = "VALARM"

	// iCal/vCard Fields
	PropBegin       = "BEGIN"
	PropEnd         = "END"
	PropUID         = "UID"
	PropSummary     = "SUMMARY"
	PropDescription = "DESCRIPTION"
	PropDTStart     = "DTSTART"
	PropDTEnd       = "DTEND"
	PropDTStamp     = "DTSTAMP"
	PropRRule       = "RRULE"
	PropTransp      = "TRANSP"
	PropClass       = "CLASS"
	PropAction      = "ACTION"
	PropTrigger     = "TRIGGER"
	PropVersion     = "VERSION"
	PropProdid      = "PRODID"
	PropCalScale    = "CALSCALE"
	PropMethod      = "METHOD"
	ParamValueDate  = ";VALUE=DATE"

	VCardBDAY = "BDAY"
	VCardFN   = "FN"

	LineBreak       = "\n"
	StrictLineBreak = "\r\n"
)

// -----------------------------------------------------------------------------
// Data Formats, Limits & File Extensions
// -----------------------------------------------------------------------------

const (
	// Accepted birthday shapes.
	DateFormatFullDash = "2006-01-02"
	DateFormatNoYearD  = "--01-02"

	// iCalendar value layouts.
	DateFormatICal      = "20060102"
	DateTimeFormatICalZ = "20060102T150405Z"
	DateFormatDisplay   = "2006-01-02"

	// UID Generation
	UIDHashLength   = 16
	FormatHashInput = "%s|%s|%s"
	FormatStableUID = "%s@%s"

	// MaxInputSize caps uploads and downloads of contact exports.
	MaxInputSize = 32 * 1024 * 1024 // 32MB
)

// -----------------------------------------------------------------------------
// Network & Timeouts
// -----------------------------------------------------------------------------

const (
	HTTPTimeout        = 30 * time.Second
	ShutdownTimeout    = 5 * time.Second
	ServerReadTimeout  = 10 * time.Second
	ServerWriteTimeout = 30 * time.Second
	ServerIdleTimeout  = 60 * time.Second
	RetryAfterSeconds  = "10"
	AllowedMethods     = "GET, HEAD"
	SchemeHTTP         = "http"
	SchemeHTTPS        = "https"
	RouteRoot          = "/"
	RouteCalendar      = "/birthdays.ics"
	RouteConvert       = "/convert"
	RouteHealth        = "/healthz"
	AddrSeparator      = ":"
	FormFieldFile      = "file"
)

// -----------------------------------------------------------------------------
// HTTP Headers & MIME Types
// -----------------------------------------------------------------------------

const (
	HeaderContentType        = "Content-Type"
	HeaderContentDisposition = "Content-Disposition"
	HeaderCacheControl       = "Cache-Control"
	HeaderETag               = "ETag"
	HeaderLastModified       = "Last-Modified"
	HeaderRetryAfter         = "Retry-After"
	HeaderAllow              = "Allow"
	HeaderXContentType       = "X-Content-Type-Options"
	HeaderUserAgent          = "User-Agent"
	HeaderAccept             = "Accept"
	HeaderIfNoneMatch        = "If-None-Match"
	HeaderIfModifiedSince    = "If-Modified-Since"
	HeaderExtracted          = "X-Contacts-Extracted"
	HeaderProcessed          = "X-Contacts-Processed"

	MimeTextCalendar    = "text/calendar; charset=utf-8"
	MimeTextPlain       = "text/plain; charset=utf-8"
	MimeMultipart       = "multipart/form-data"
	MimeAcceptExport    = "text/csv, text/vcard, text/x-vcard;q=0.9, */*;q=0.5"
	MimeNoSniff         = "nosniff"
	CacheControlPrivate = "private, no-cache"

	// FormatETag expects a string argument.
	FormatETag = `"%s"`
	// FormatAttachment expects a file name.
	FormatAttachment = `attachment; filename="%s"`
)

// -----------------------------------------------------------------------------
// Error Messages (Technical/Logs)
// -----------------------------------------------------------------------------

const (
	ErrEmptyInput       = "contact export appears to be empty"
	ErrMissingColumn    = "required column not found in contact export"
	ErrNoContacts       = "no contacts with birthdays found"
	ErrNoneValid        = "no contact birthday could be read"
	ErrNoSource         = "configuration error: no input file or URL given"
	ErrLocalPathEmpty   = "configuration error: local path is empty"
	ErrWebURLEmpty      = "configuration error: web URL is empty"
	ErrFetcherMissing   = "internal error: network fetcher is not initialized"
	ErrModeUnsupport    = "configuration error: unsupported source mode"
	ErrServerStartup    = "server startup failed"
	ErrServerShutdown   = "server shutdown failed"
	ErrPortRequired     = "server port is required"
	ErrPortNumber       = "server port must be a number"
	ErrPortRange        = "server port must be between 1 and 65535"
	ErrLanguage         = "unsupported language"
	ErrInvalidURL       = "invalid URL structure"
	ErrProtocol         = "unsupported protocol scheme (http/https only)"
	ErrReadInput        = "failed to read contact export"
	ErrDecodeInput      = "failed to decode contact export text"
	ErrICalEncode       = "failed to encode iCalendar data"
	ErrICalParse        = "failed to parse iCalendar data"
	ErrWriteOutput      = "failed to write calendar"
	ErrDateParse        = "unable to parse date"
	ErrDateInvalid      = "not a real calendar date"
	ErrLogFile          = "failed to open log file"
	ErrCacheDir         = "could not determine user cache dir"
	ErrCreateDir        = "could not create app cache dir"
	ErrAppFailed        = "application failed unexpectedly"
	ErrWriteResp        = "failed to write response body"
	ErrLocalesAccess    = "failed to access embedded locales"
	ErrLocaleLoad       = "failed to load locale file"
	ErrSettingsRead     = "failed to read settings"
	ErrSettingsDecode   = "failed to decode settings"
	ErrSettingsWrite    = "failed to write settings"
	ErrCronSpec         = "invalid refresh schedule"
	ErrKeyringSet       = "failed to store password in keyring"
	ErrKeyringDelete    = "failed to remove password from keyring"
	ErrPasswordPrompt   = "failed to read password"
	ErrNotTerminal      = "stdin is not a terminal"
	ErrUploadRead       = "failed to read upload"
	ErrUserRequired     = "a user name is required"
	ErrRecurrenceParse  = "failed to parse recurrence rule"
	ErrEventStartParse  = "failed to parse event start"
	ErrUnsupportedShape = "unsupported output format"
	ErrConfigDir        = "could not determine user config dir"
	ErrOpenCalendar     = "failed to open calendar"
	ErrInputTooLarge    = "contact export exceeds the size limit"
	ErrFetchRequest     = "failed to create request"
	ErrFetchNetwork     = "network error during fetch"
	ErrFetchStatus      = "source answered with an unexpected status"
)

// -----------------------------------------------------------------------------
// Translation Keys (locales/active.*.json)
// -----------------------------------------------------------------------------

const (
	TKeyEvtSummary        = "evt_summary"
	TKeyEvtDescription    = "evt_description"
	TKeyEvtEmailSummary   = "evt_email_summary"
	TKeyEvtDisplaySummary = "evt_display_summary"
	TKeyEvtReminder       = "evt_reminder"

	// TmplKeyName is the template field holding the contact's full name.
	TmplKeyName = "Name"

	LocalesDir   = "locales"
	LocalePrefix = "active."
	LocaleSuffix = ".json"
	LocaleFormat = "json"
)

// -----------------------------------------------------------------------------
// HTTP Server Responses
// -----------------------------------------------------------------------------

const (
	HTTPMsgInitializing = "Calendar initializing, please try again shortly."
	HTTPMsgMethodNotAll = "Method Not Allowed"
	HTTPMsgOK           = "ok"
)

// -----------------------------------------------------------------------------
// User Facing Messages
// -----------------------------------------------------------------------------

const (
	// MsgNoContacts and MsgNoneValid must stay distinct: the first means the
	// export had nothing to convert, the second that every birthday was unreadable.
	MsgNoContacts    = "No contacts with birthdays were found in the export."
	MsgNoneValid     = "Contacts were found, but none of their birthdays could be read."
	MsgEmptyInput    = "The contact export is empty."
	MsgMissingColumn = "The contact export has no \"Birthday\" column. Export your contacts in Google CSV format."
	MsgInputTooLarge = "The contact export is larger than 32 MB."
	MsgConverted     = "Converted %d of %d contacts into %s\n"
	MsgSkippedLine   = "  skipped %s: %q\n"
	MsgPassPrompt    = "Password for %s: "
	MsgPassStored    = "Password stored in the keyring for %s\n"
	MsgPassForgotten = "Password removed from the keyring for %s\n"
	MsgConfigSaved   = "Settings written to %s\n"
)

// -----------------------------------------------------------------------------
// Log Messages
// -----------------------------------------------------------------------------

const (
	MsgSyncStarted   = "Conversion started"
	MsgSyncFinished  = "Conversion finished"
	MsgSyncFailed    = "Conversion failed"
	MsgSyncReq       = "Sync requested"
	MsgWorkerStart   = "Refresh worker started"
	MsgWorkerStop    = "Refresh worker stopping due to context cancellation"
	MsgAppStop       = "Application stopped gracefully"
	MsgSkippedCard   = "Skipping malformed vCard"
	MsgSkippedDate   = "Skipping contact with invalid birthday format"
	MsgGenSuccess    = "Calendar generation successful"
	MsgAppStarting   = "Starting application"
	MsgServerListen  = "HTTP server listening"
	MsgServerStop    = "Shutting down HTTP server..."
	MsgCacheUpdated  = "Calendar cache updated"
	MsgLocaleSkip    = "Skipping non-locale file"
	MsgLocaleBadName = "Skipping malformed locale filename"
	MsgLocaleLoaded  = "Locale loaded successfully"
	MsgTransMissing  = "Missing translation key"
	MsgPassFail      = "Password retrieval failed (might be empty)"
	MsgLogWarning    = "Warning: %s at %s: %v\n"
	MsgDownloadStart = "Initiating contact export download"
	MsgDownloading   = "Contact export downloading"
	MsgFetchStatus   = "Source returned error status"
	MsgFetchTooLarge = "Source announced an oversized export"
	MsgUploadDone    = "Upload converted"
	MsgSettingsFile  = "Settings file loaded"
	MsgRequestServed = "HTTP request served"
	MsgUploadFailed  = "Upload rejected"
	MsgCtxCancel     = "Context cancelled, shutting down"
	MsgNoSourceServe = "No source configured, only uploads will be converted"
	MsgReloadSignal  = "Reload signal received, syncing now"
	MsgLangFallback  = "No locale file for language, events fall back to English"
)

// -----------------------------------------------------------------------------
// Structured Logging Keys (slog)
// -----------------------------------------------------------------------------

const (
	LogKeyComponent = "component"
	LogKeyError     = "error"
	LogKeyURL       = "url"
	LogKeyStatus    = "status_code"
	LogKeyFile      = "file"
	LogKeyLang      = "lang"
	LogKeyKey       = "key"
	LogKeyPort      = "port"
	LogKeyMode      = "mode"
	LogKeySchedule  = "schedule"
	LogKeyUser      = "user"
	LogKeyFormat    = "format"
	LogKeyRows      = "rows"
	LogKeyExtracted = "contacts_extracted"
	LogKeyProcessed = "contacts_processed"
	LogKeySkipped   = "contacts_skipped"
	LogKeySizeBytes = "size_bytes"
	LogKeyLength    = "content_length"
	LogKeyLimit     = "limit_bytes"
	LogKeyETag      = "etag"
	LogKeyManual    = "manual"
	LogKeyValue     = "value"
	LogKeyReason    = "reason"
	LogKeyStats     = "stats"
	LogKeyName      = "name"
	LogKeyDuration  = "duration_ms"
	LogKeyRequestID = "request_id"
	LogKeyMethod    = "method"
	LogKeyPath      = "path"
	LogKeyCommand   = "command"
	LogKeySignal    = "signal"

	// Startup Info Keys
	LogKeyBuild   = "build"
	LogKeyApp     = "app"
	LogKeyVersion = "version"
	LogKeyGoVer   = "go_version"
	LogKeyEnv     = "env"
	LogKeyOS      = "os"
	LogKeyArch    = "arch"
	LogKeyPID     = "pid"
)

// -----------------------------------------------------------------------------
// Log Components
// -----------------------------------------------------------------------------

const (
	CompEngine    = "engine"
	CompContacts  = "contacts"
	CompServer    = "server"
	CompFetcher   = "fetcher"
	CompWorker    = "worker"
	CompMain      = "main"
	CompI18n      = "i18n"
	CompInspect   = "inspect"
	CompKeyring   = "keyring"
	CompConfigSet = "settings"
)

// -----------------------------------------------------------------------------
// Limits
// -----------------------------------------------------------------------------

const (
	MinPort = 1
	MaxPort = 65535
)
