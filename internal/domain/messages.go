package domain

const (
	msgWelcome = "👋 Welcome to YouTube Playlist Downloader Bot!\n\n" +
		"I can download entire YouTube playlists and upload them to your channel.\n\n" +
		"📝 First, send me your channel ID or forward a message from the channel.\n" +
		"Format: @channelname or -100123456789"

	msgHelp = "📖 *How to use:*\n\n" +
		"1. Send /start\n" +
		"2. Send your channel ID or forward a message from the channel\n" +
		"3. Send a YouTube playlist link\n" +
		"4. Wait for videos to download and upload\n\n" +
		"⚠️ Make sure the bot is an admin in your channel!\n\n" +
		"Commands:\n" +
		"/start - Start/reset the bot\n" +
		"/help - Show this message"

	msgStartFirst    = "Please use /start first to set up the bot!"
	msgIdle          = "Send me a YouTube playlist link or use /start to reset."
	msgChannelSet    = "✅ Channel set: %s\n\nNow send me a YouTube playlist link!"
	msgInvalidFormat = "❌ Invalid channel ID format.\n" +
		"Please use: @channelname or -100123456789\n" +
		"Or forward a message from the channel."
	msgChannelFirst = "⚠️ Please set a channel first!\nUse /start to begin."
	msgJobRunning   = "⏳ A playlist is already being processed. Please wait until it finishes."

	msgInvalidURL   = "❌ Invalid YouTube URL. Please send a valid YouTube playlist link."
	msgFetching     = "🔍 Fetching playlist info..."
	msgFound        = "📋 Found playlist: %s\n📹 Total videos: %d\n\n⏳ Starting download and upload process...\nThis may take a while depending on playlist size."
	msgNoEntries    = "❌ Could not find videos in playlist."
	msgNoDownloads  = "❌ No videos were downloaded."
	msgSkipping     = "⚠️ Skipping %s (too large: %s)"
	msgUploading    = "📤 Uploading %d/%d: %s..."
	msgUploadFailed = "❌ Error uploading %s: %s"
	msgKeptCopy     = "⚠️ Uploaded %s but could not delete the local copy: %s"
	msgCompleted    = "✅ Completed! Uploaded %d videos to channel.%s\n\nSend another playlist link or /start to set a new channel."
	msgFatal        = "❌ Error: %s\n\nPlease check the playlist link and try again."

	unknownPlaylist = "Unknown Playlist"
)

const (
	// fatalErrLen bounds job-level error text sent to users.
	fatalErrLen = 200
	itemErrLen  = 100
	fileNameLen = 50
	captionLen  = 1024
)
