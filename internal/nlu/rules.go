package nlu

import (
	"regexp"
	"strings"
)

var (
	addTaskRe       = regexp.MustCompile(`\badd\s+(.+?)\s+(?:to\s+(?:my\s+|the\s+)?(?:[a-z-]+\s+)?(?:list|tasks)|as\s+a\s+task|task)\b`)
	addTaskPrefixRe = regexp.MustCompile(`\badd\s+(?:a\s+)?(?:new\s+)?task\s+(.+)$`)
	completeTaskRe  = regexp.MustCompile(`\b(?:complete|finish|remove|delete)\s+task\s*(?:number\s+)?(\S+)?`)
	cityRe          = regexp.MustCompile(`\b(?:in|for|at)\s+(?:the\s+)?([a-z][a-z .'-]*)$`)
	websiteRe       = regexp.MustCompile(`\bopen\s+(?:the\s+)?(?:website|site)\s+(.+)$`)
	websiteSuffixRe = regexp.MustCompile(`\bopen\s+(?:the\s+)?(.+?)\s+(?:website|site)$`)
	openAppRe       = regexp.MustCompile(`\b(?:open|launch)\s+(?:the\s+)?(?:app\s+|application\s+)?(.+)$`)
	searchRe        = regexp.MustCompile(`\b(?:search\s+(?:the\s+web\s+|google\s+)?for|google)\s+(.+)$`)
	levelRe         = regexp.MustCompile(`-?\d+`)
	playRe          = regexp.MustCompile(`\bplay\s+(?:some\s+)?(?:music|the\s+song|song)?\s*(.*)$`)
	calcPrefixRe    = regexp.MustCompile(`^.*?\b(?:calculate|compute|what\s+is|what's)\s+`)
	whatIsNumberRe  = regexp.MustCompile(`\b(?:what\s+is|what's)\s+-?\d`)
	wikiPrefixRe    = regexp.MustCompile(`^(?:search|look\s+up|tell\s+me\s+about|who\s+is|what\s+is|what's|on|in|for|from|about)\s+`)
	wikiSuffixRe    = regexp.MustCompile(`\s+(?:on|in|from)$`)
)

// Rules is the command table in priority order. Several predicates overlap
// ("open" and "open website", "time" and "timer"), so order matters.
var Rules = []Rule{
	{Intent: IntentExit, Match: words("goodbye", "good bye", "exit", "quit", "stop listening")},
	{Intent: IntentGreeting, Match: words("hello", "hey", "hi")},
	{
		Intent:  IntentTodoAdd,
		Match:   all(words("add"), words("task", "tasks", "list", "to-do", "todo")),
		Extract: extractAddTask,
	},
	{
		Intent: IntentTodoShow,
		Match:  all(words("show", "read", "what's on", "tell me"), words("list", "tasks", "to-do", "todo")),
	},
	{
		Intent:  IntentTodoComplete,
		Match:   words("complete task", "finish task", "remove task", "delete task"),
		Extract: extractCompleteTask,
	},
	{Intent: IntentTimer, Match: words("timer"), Extract: extractTimer},
	{Intent: IntentTime, Match: words("time")},
	{Intent: IntentDate, Match: words("date", "what day", "today's date")},
	{Intent: IntentJoke, Match: words("joke", "jokes", "something funny")},
	{Intent: IntentWikipedia, Match: words("wikipedia"), Extract: extractWikiTerm},
	{Intent: IntentWeather, Match: words("weather", "temperature", "forecast"), Extract: extractCity},
	{Intent: IntentNews, Match: words("news", "headlines")},
	{
		Intent:  IntentOpenWebsite,
		Match:   all(words("open"), words("website", "site")),
		Extract: extractWebsite,
	},
	{Intent: IntentOpenApp, Match: words("open", "launch"), Extract: extractApp},
	{Intent: IntentWebSearch, Match: words("search for", "search the web for", "search google for", "google"), Extract: extractSearch},
	{Intent: IntentScreenshot, Match: words("screenshot", "screen shot", "capture the screen")},
	{Intent: IntentVolume, Match: words("volume"), Extract: extractLevel},
	{Intent: IntentBrightness, Match: words("brightness"), Extract: extractLevel},
	{Intent: IntentShutdown, Match: words("shutdown", "shut down", "power off")},
	{Intent: IntentRestart, Match: words("restart", "reboot")},
	{Intent: IntentSleep, Match: words("sleep", "suspend")},
	{Intent: IntentPauseMusic, Match: words("pause music", "pause the music", "pause", "stop the music", "stop music")},
	{Intent: IntentNextTrack, Match: words("next track", "next song", "skip track", "skip song", "skip")},
	{Intent: IntentPlayMusic, Match: words("play music", "play"), Extract: extractSong},
	{Intent: IntentEmail, Match: words("email", "e-mail", "send a mail")},
	{Intent: IntentCalculate, Match: isCalculation, Extract: extractExpression},
}

func extractAddTask(q string) map[string]string {
	if m := addTaskRe.FindStringSubmatch(q); m != nil {
		if task := cleanTask(m[1]); task != "" {
			return map[string]string{EntityTask: task}
		}
	}
	if m := addTaskPrefixRe.FindStringSubmatch(q); m != nil {
		if task := cleanTask(m[1]); task != "" {
			return map[string]string{EntityTask: task}
		}
	}
	return nil
}

func cleanTask(s string) string {
	s = strings.TrimSpace(s)
	for _, p := range []string{"a task ", "task ", "new task "} {
		s = strings.TrimPrefix(s, p)
	}
	return strings.Trim(s, " '\"")
}

func extractCompleteTask(q string) map[string]string {
	m := completeTaskRe.FindStringSubmatchIndex(q)
	if m == nil || m[2] < 0 {
		return nil
	}
	// "twenty-one" and "twenty one" both collapse to the first token
	n := strings.Fields(ReplaceNumberWords(q[m[2]:]))[0]
	return map[string]string{EntityNumber: n}
}

func extractTimer(q string) map[string]string {
	d := q
	if i := strings.Index(q, "timer for"); i >= 0 {
		d = strings.TrimSpace(q[i+len("timer for"):])
	}
	return map[string]string{EntityDuration: ReplaceNumberWords(d)}
}

func extractWikiTerm(q string) map[string]string {
	term := strings.TrimSpace(strings.ReplaceAll(q, "wikipedia", " "))
	term = spaceRe.ReplaceAllString(term, " ")
	for {
		next := wikiPrefixRe.ReplaceAllString(term, "")
		next = wikiSuffixRe.ReplaceAllString(next, "")
		if next == term {
			break
		}
		term = strings.TrimSpace(next)
	}
	if term == "" {
		return nil
	}
	return map[string]string{EntityTerm: term}
}

func extractCity(q string) map[string]string {
	m := cityRe.FindStringSubmatch(q)
	if m == nil {
		return nil
	}
	city := strings.TrimSpace(strings.TrimPrefix(m[1], "the "))
	for _, tail := range []string{" today", " tomorrow", " right now", " now"} {
		city = strings.TrimSuffix(city, tail)
	}
	if city == "" {
		return nil
	}
	return map[string]string{EntityCity: city}
}

func extractWebsite(q string) map[string]string {
	for _, re := range []*regexp.Regexp{websiteRe, websiteSuffixRe} {
		if m := re.FindStringSubmatch(q); m != nil {
			if name := strings.TrimSpace(m[1]); name != "" {
				return map[string]string{EntityName: name}
			}
		}
	}
	return nil
}

func extractApp(q string) map[string]string {
	m := openAppRe.FindStringSubmatch(q)
	if m == nil {
		return nil
	}
	name := strings.TrimSpace(strings.TrimSuffix(m[1], " app"))
	if name == "" {
		return nil
	}
	return map[string]string{EntityName: name}
}

func extractSearch(q string) map[string]string {
	m := searchRe.FindStringSubmatch(q)
	if m == nil || strings.TrimSpace(m[1]) == "" {
		return nil
	}
	return map[string]string{EntityTerm: strings.TrimSpace(m[1])}
}

func extractLevel(q string) map[string]string {
	n := levelRe.FindString(ReplaceNumberWords(q))
	if n == "" {
		return nil
	}
	return map[string]string{EntityLevel: n}
}

func extractSong(q string) map[string]string {
	m := playRe.FindStringSubmatch(q)
	if m == nil {
		return nil
	}
	song := strings.TrimSpace(strings.TrimSuffix(m[1], "on spotify"))
	if song == "" {
		return nil
	}
	return map[string]string{EntitySong: song}
}

var calcWords = words("calculate", "compute")

func isCalculation(q string) bool {
	return calcWords(q) || whatIsNumberRe.MatchString(ReplaceNumberWords(q))
}

func extractExpression(q string) map[string]string {
	expr := strings.TrimSpace(calcPrefixRe.ReplaceAllString(q, ""))
	if expr == "" {
		return nil
	}
	return map[string]string{EntityExpr: expr}
}
