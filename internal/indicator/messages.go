package indicator

import (
	"fmt"
	"os"
	"strings"
)

type locale string

const (
	localeChinese locale = "zh"
	localeEnglish locale = "en"
)

type messages struct {
	recording      string
	recorded       string
	recordCanceled string
	swept          string
	muted          string
	unmuted        string
	errorText      string
}

func (m messages) sweptText(n int) string {
	return fmt.Sprintf(m.swept, n)
}

func messagesFromEnv() messages {
	return localeMessages(resolveLocale(os.Getenv("LANG")))
}

func resolveLocale(raw string) locale {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if strings.HasPrefix(raw, "en") {
		return localeEnglish
	}
	return localeChinese
}

func localeMessages(tag locale) messages {
	switch tag {
	case localeEnglish:
		return messages{
			recording:      "Press a shortcut…",
			recorded:       "Shortcut set: ",
			recordCanceled: "Shortcut recording canceled",
			swept:          "Removed %d unreferenced audio files",
			muted:          "Muted",
			unmuted:        "Volume restored",
			errorText:      "SoundPP error",
		}
	default:
		return messages{
			recording:      "请按下快捷键…",
			recorded:       "快捷键已设置：",
			recordCanceled: "已取消录制快捷键",
			swept:          "已清理 %d 个未引用的音频文件",
			muted:          "已静音",
			unmuted:        "已恢复音量",
			errorText:      "SoundPP 出错了",
		}
	}
}
