package extprefs

// Namespace is the key prefix shared by the extension's own preferences.
const Namespace = "extensions.autoproxy2."

// Keys of the built-in autoproxy2 defaults.
const (
	KeyCurrentVersion                  = Namespace + "currentVersion"
	KeyEnabled                         = Namespace + "enabled"
	KeyFrameObjects                    = Namespace + "frameobjects"
	KeyFastCollapse                    = Namespace + "fastcollapse"
	KeyShowInStatusBar                 = Namespace + "showinstatusbar"
	KeyDetachSidebar                   = Namespace + "detachsidebar"
	KeyDefaultToolbarAction            = Namespace + "defaulttoolbaraction"
	KeyDefaultStatusBarAction          = Namespace + "defaultstatusbaraction"
	KeySidebarKey                      = Namespace + "sidebar_key"
	KeySendReportKey                   = Namespace + "sendReport_key"
	KeyFiltersKey                      = Namespace + "filters_key"
	KeyEnableKey                       = Namespace + "enable_key"
	KeyFlashScrollToItem               = Namespace + "flash_scrolltoitem"
	KeyPreviewImages                   = Namespace + "previewimages"
	KeyDataDirectory                   = Namespace + "data_directory"
	KeyPatternsBackups                 = Namespace + "patternsbackups"
	KeyPatternsBackupInterval          = Namespace + "patternsbackupinterval"
	KeyWhitelistSchemes                = Namespace + "whitelistschemes"
	KeyHideImageManager                = Namespace + "hideimagemanager"
	KeySubscriptionsAutoUpdate         = Namespace + "subscriptions_autoupdate"
	KeySubscriptionsListURL            = Namespace + "subscriptions_listurl"
	KeySubscriptionsFallbackURL        = Namespace + "subscriptions_fallbackurl"
	KeySubscriptionsFallbackErrors     = Namespace + "subscriptions_fallbackerrors"
	KeySubscriptionsExceptionsURL      = Namespace + "subscriptions_exceptionsurl"
	KeySubscriptionsExceptionsCheckbox = Namespace + "subscriptions_exceptionscheckbox"
	KeyDocumentationLink               = Namespace + "documentation_link"
	KeySaveStats                       = Namespace + "savestats"
	KeyComposerDefault                 = Namespace + "composer_default"
	KeyClearStatsOnHistoryPurge        = Namespace + "clearStatsOnHistoryPurge"
	KeyReportSubmitURL                 = Namespace + "report_submiturl"
	KeyRecentReports                   = Namespace + "recentReports"

	// KeySyncEngine opts the extension's data into cross-device sync. It lives in the
	// host's sync namespace rather than under Namespace.
	KeySyncEngine = "services.sync.engine.autoproxy2"
)
