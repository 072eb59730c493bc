package artifact

import "regexp"

var taskPattern = regexp.MustCompile(`^\[(?P<task>\d+)\]`)

// ExtractTask returns the numeric task id of a message starting with "[<digits>]".
func ExtractTask(message string) (string, bool) {
	match := taskPattern.FindStringSubmatch(message)
	if match == nil {
		return "", false
	}

	return match[taskPattern.SubexpIndex("task")], true
}
