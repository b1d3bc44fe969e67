// Package chat turns Twitch chat replay pages into a transcript.
//
// A Merger is fed one GQL response per fetch window. Windows overlap, so the
// Merger keeps exactly one Comment per content offset (the first one seen).
// Once every window has been processed, Merger.Transcript sorts the comments by
// offset and WriteFile renders them as:
//
//	=== FULL CHAT VOD <id> ===
//	Duration: HH:MM:SS
//	Total: <n> messages
//	==================================================
//
//	[HH:MM:SS] username: message
//
// Comments without a commenter are attributed to "[deleted]" and emote
// fragments are rendered as "[emoteID]".
package chat
