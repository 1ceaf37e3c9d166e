package render

import (
	"regexp"
	"strings"
)

// emotePattern matches a complete custom emote code, i.e. one that carries
// an uploaded asset ID. Codes without an ID are placeholders.
var emotePattern = regexp.MustCompile(`^<a?:\w+:\d+>$`)

// emoteMap maps emoji (and day names) to custom emote codes for clients
// that support them. Placeholder codes keep their slot until the asset is
// uploaded; lookups fall back to the plain emoji for those.
var emoteMap = map[string]string{
	// Main character / theme
	"🦕": "<:starcrunch:1392407227394035814>",
	"🚀": "<:starcrunch2:>",

	// Task categories
	"📅":  "<:appntmt:1392405806481145906>",
	"🛍️": "<:shopping:1392407207626408026>",
	"💼":  "<:worktask:>",
	"👤":  "<:personal:>",
	"📋":  "<:general:1392406970325274636>",

	// Priority levels
	"🔥": "<:highP:1392407013564219392>",
	"⚡": "<:mediumP:1392407045210243072>",
	"💤": "<:lowP:1392407030584574172>",

	// Status and actions
	"✅": "✅",
	"📡": "<:connected:1392406868458082414>",
	"⏰": "<:peakfocus:1392407141289164921>",
	"🏆": "🏆",
	"💡": "💡",

	// Time of day
	"🌅":  "<:morningtask:>",
	"☀️": "<:afternoontask:1392405316737564762>",
	"🌙":  "<:nighttask:1392407123417239552>",

	// UI and feedback
	"🏪":  "<:store:>",
	"📁":  "<:data:1392406884795027526>",
	"⚠️": "<:error:1392406934401056788>",
	"❌":  "<:missed:>",
	"🔍":  "<:search:1392407193294475264>",

	// Task types
	"🛒": "<:errand:1392406920505327719>",
	"🎮": "<:gamingtask:1392406957469601793>",
	"💻": "<:worktask2:1392405403916173393>",
	"🎯": "<:personaltask:1392407168120258560>",

	// Stars
	"⭐": "<:4ptstar:1392405561110433802>",
	"🌟": "<:5ptstar:1392405575056232478>",
	"✨": "<:8ptstar:1392405584963174431>",

	// Days of week
	"monday":    "<:monday:1392407080782135336>",
	"tuesday":   "<:tuesday:>",
	"wednesday": "<:wednesday:>",
	"thursday":  "<:thursday:>",
	"friday":    "<:friday:>",
	"saturday":  "<:saturday:1392407182292684820>",
	"sunday":    "<:sunday:>",

	// Special
	"🦶": "<:dinopaw:1392406904613113868>",
	"📝": "<:todo:>",
	"🧹": "<:clean2:1392405854535286836>",
	"📦": "<:batcherrands:1392405821627043870>",

	// Animated banners
	"info_banner": "<a:info_banner:1393082430218436788>",
	"banner":      "<a:banner:1393084917839171624>",
	"8ptstar":     "<:8ptstar:1392834331906539590>",
}

// Emote returns the custom emote code for an emoji or day name.
// Placeholder codes and unknown inputs fall back to the input itself.
func Emote(emojiOrName string) string {
	if code, ok := emoteMap[emojiOrName]; ok {
		if emotePattern.MatchString(code) {
			return code
		}
		return emojiOrName
	}
	if code, ok := emoteMap[strings.ToLower(emojiOrName)]; ok {
		if emotePattern.MatchString(code) {
			return code
		}
		return emojiOrName
	}
	return emojiOrName
}

// ReplaceTokens replaces every emoji that has a complete custom emote code.
// Replacements are independent, so map iteration order does not matter.
func ReplaceTokens(text string) string {
	for emoji, code := range emoteMap {
		if emotePattern.MatchString(code) {
			text = strings.ReplaceAll(text, emoji, code)
		}
	}
	return text
}
