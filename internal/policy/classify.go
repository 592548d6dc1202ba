package policy

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Structured tools carry a fixed classification; only the shell tool needs
// command-string analysis.
var staticToolClass = map[string]Class{
	"read_file":  ClassRead,
	"glob":       ClassRead,
	"grep":       ClassRead,
	"web_search": ClassRead,
	"web_fetch":  ClassRead,
	"write_file": ClassWrite,
	"edit_file":  ClassWrite,
}

// ClassifyTool classifies a tool invocation by name and arguments.
// Unrecognized tool names classify as Unknown.
func ClassifyTool(name string, args map[string]any) Class {
	if c, ok := staticToolClass[name]; ok {
		return c
	}
	if name == "shell" {
		cmd, _ := args["command"].(string)
		return ClassifyCommand(cmd)
	}
	return ClassUnknown
}

// readVerbs are executables whose invocation never mutates state on its own.
var readVerbs = map[string]bool{
	"ls": true, "cat": true, "head": true, "tail": true, "less": true,
	"more": true, "wc": true, "grep": true, "egrep": true, "fgrep": true,
	"rg": true, "ag": true, "pwd": true, "echo": true, "printf": true,
	"stat": true, "file": true, "du": true, "df": true, "ps": true,
	"which": true, "whereis": true, "whoami": true, "id": true,
	"groups": true, "date": true, "uname": true, "env": true,
	"printenv": true, "hostname": true, "uptime": true, "tree": true,
	"basename": true, "dirname": true, "realpath": true, "readlink": true,
	"diff": true, "cmp": true, "comm": true,
	"cut": true, "tr": true, "column": true, "fold": true, "nl": true,
	"strings": true, "md5sum": true, "sha1sum": true, "sha256sum": true,
	"cksum": true, "jq": true, "type": true, "test": true,
	"[": true, "true": true, "false": true, "sleep": true,
}

// writeVerbs are executables that exist to mutate state.
var writeVerbs = map[string]bool{
	"rm": true, "rmdir": true, "mkdir": true, "touch": true, "cp": true,
	"mv": true, "ln": true, "dd": true, "chmod": true, "chown": true,
	"chgrp": true, "truncate": true, "tee": true, "install": true,
	"patch": true, "rsync": true, "scp": true, "sftp": true, "shred": true,
	"mkfifo": true, "mknod": true, "mount": true, "umount": true,
	"kill": true, "pkill": true, "killall": true, "reboot": true,
	"shutdown": true, "systemctl": true, "service": true, "crontab": true,
	"sudo": true, "doas": true, "su": true,
	"apt": true, "apt-get": true, "dpkg": true, "yum": true, "dnf": true,
	"pacman": true, "brew": true, "pip": true, "pip3": true, "gem": true,
}

var gitReadSubcommands = map[string]bool{
	"status": true, "log": true, "diff": true, "show": true, "branch": true,
	"blame": true, "shortlog": true, "describe": true, "rev-parse": true,
	"rev-list": true, "ls-files": true, "ls-remote": true, "ls-tree": true,
	"cat-file": true, "grep": true, "reflog": true, "remote": true,
}

var gitWriteSubcommands = map[string]bool{
	"add": true, "commit": true, "push": true, "pull": true, "fetch": true,
	"merge": true, "rebase": true, "reset": true, "checkout": true,
	"switch": true, "restore": true, "stash": true, "rm": true, "mv": true,
	"clean": true, "tag": true, "cherry-pick": true, "revert": true,
	"am": true, "apply": true, "init": true, "clone": true, "config": true,
	"worktree": true, "submodule": true, "gc": true, "prune": true,
}

// neutral wrappers that defer to the command that follows them.
var wrapperVerbs = map[string]bool{
	"env": true, "command": true, "nohup": true, "time": true, "nice": true,
}

var envAssignRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*=`)

// ClassifyCommand classifies a free-form shell command string.
//
// The command is tokenized with a strict quote-aware scanner and split into
// segments on chaining operators. The most restrictive segment wins: any
// write-classified segment makes the whole command Write, any unrecognized
// segment makes it Unknown (which read-only mediation treats the same as
// Write). Output redirections force Write regardless of the command on the
// left. Tokenizer errors and command/process substitution classify as
// Unknown rather than guessing.
//
// ClassifyCommand is a pure function: equal inputs always yield equal
// classifications.
func ClassifyCommand(cmd string) Class {
	if strings.TrimSpace(cmd) == "" {
		return ClassUnknown
	}

	toks, err := tokenize(cmd)
	if err != nil {
		return ClassUnknown
	}

	var segments [][]string
	var current []string
	sawWrite := false
	sawUnknown := false

	flush := func() {
		if len(current) > 0 {
			segments = append(segments, current)
			current = nil
		}
	}

	for _, t := range toks {
		if t.kind == tokenWord {
			current = append(current, t.text)
			continue
		}
		switch t.text {
		case ";", "&&", "||", "|", "&", "\n", "(", ")":
			flush()
		case "<", "<<", "<<<":
			// plain input redirection reads a file or inline text
		default:
			// every remaining operator form writes to a file target,
			// except duplication onto another descriptor (e.g. 2>&1)
			if fdDupRe.MatchString(t.text) {
				continue
			}
			sawWrite = true
		}
	}
	flush()

	for _, seg := range segments {
		switch classifySegment(seg) {
		case ClassWrite:
			sawWrite = true
		case ClassUnknown:
			sawUnknown = true
		}
	}

	switch {
	case sawWrite:
		return ClassWrite
	case sawUnknown:
		return ClassUnknown
	case len(segments) == 0:
		return ClassUnknown
	default:
		return ClassRead
	}
}

var fdDupRe = regexp.MustCompile(`^[0-9]*[<>]&[0-9-]+$`)

// classifySegment classifies a single pipeline/chain segment by its verb.
func classifySegment(words []string) Class {
	i := 0
	for i < len(words) {
		w := words[i]
		switch {
		case envAssignRe.MatchString(w):
			i++
		case wrapperVerbs[filepath.Base(w)]:
			i++
			for i < len(words) && strings.HasPrefix(words[i], "-") {
				i++
			}
		case filepath.Base(w) == "timeout":
			i++
			for i < len(words) && strings.HasPrefix(words[i], "-") {
				i++
			}
			i++ // duration argument
		case filepath.Base(w) == "xargs":
			i++
			for i < len(words) && strings.HasPrefix(words[i], "-") {
				i++
			}
		default:
			return classifyVerb(filepath.Base(w), words[i+1:])
		}
	}
	return ClassUnknown
}

func classifyVerb(verb string, args []string) Class {
	switch verb {
	case "git":
		return classifyGit(args)
	case "sed":
		return classifySed(args)
	case "perl":
		for _, a := range args {
			if strings.HasPrefix(a, "-i") || a == "--in-place" {
				return ClassWrite
			}
		}
		return ClassUnknown
	case "awk", "gawk", "mawk", "nawk":
		// awk programs open output files from inside the program text
		// ('print > "file"'), which the tokenizer cannot see
		return ClassUnknown
	case "sort":
		for _, a := range args {
			if a == "-o" || a == "--output" || strings.HasPrefix(a, "--output=") ||
				(strings.HasPrefix(a, "-o") && len(a) > 2) {
				return ClassWrite
			}
		}
		return ClassRead
	case "uniq":
		// a second positional operand is the output file
		positionals := 0
		for i := 0; i < len(args); i++ {
			a := args[i]
			if a == "-f" || a == "-s" || a == "-w" {
				i++ // numeric option argument
				continue
			}
			if strings.HasPrefix(a, "-") && a != "-" {
				continue
			}
			positionals++
		}
		if positionals > 1 {
			return ClassWrite
		}
		return ClassRead
	case "find":
		for _, a := range args {
			switch a {
			case "-delete":
				return ClassWrite
			case "-exec", "-execdir", "-ok", "-okdir":
				return ClassUnknown
			}
		}
		return ClassRead
	case "curl":
		for _, a := range args {
			if a == "-o" || a == "-O" || a == "--output" || a == "--remote-name" ||
				(strings.HasPrefix(a, "-o") && len(a) > 2) {
				return ClassWrite
			}
		}
		return ClassRead
	case "wget":
		for i, a := range args {
			if a == "-O-" || a == "-qO-" {
				return ClassRead
			}
			if a == "-O" && i+1 < len(args) && args[i+1] == "-" {
				return ClassRead
			}
		}
		return ClassWrite
	}

	if writeVerbs[verb] {
		return ClassWrite
	}
	if readVerbs[verb] {
		return ClassRead
	}
	return ClassUnknown
}

// classifySed is read-only only for scripts that provably cannot write.
// The w and W commands (and the w flag on s///) open output files, so any
// script containing those letters is demoted to Unknown rather than parsed.
func classifySed(args []string) Class {
	var scripts []string
	explicit := false
	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case strings.HasPrefix(a, "-i") || a == "--in-place":
			return ClassWrite
		case a == "-e" || a == "--expression":
			if i+1 < len(args) {
				scripts = append(scripts, args[i+1])
				i++
			}
			explicit = true
		case strings.HasPrefix(a, "--expression="):
			scripts = append(scripts, strings.TrimPrefix(a, "--expression="))
			explicit = true
		case a == "-f" || a == "--file" || strings.HasPrefix(a, "--file="):
			// script comes from a file the classifier cannot see
			return ClassUnknown
		case strings.HasPrefix(a, "-") && a != "-":
			// other flags take no separate argument
		default:
			if !explicit && len(scripts) == 0 {
				scripts = append(scripts, a)
			}
		}
	}
	if len(scripts) == 0 {
		return ClassUnknown
	}
	for _, s := range scripts {
		if strings.ContainsAny(s, "wW") {
			return ClassUnknown
		}
	}
	return ClassRead
}

func classifyGit(args []string) Class {
	i := 0
	for i < len(args) {
		a := args[i]
		if a == "-C" || a == "-c" {
			i += 2
			continue
		}
		if strings.HasPrefix(a, "-") {
			i++
			continue
		}
		if gitWriteSubcommands[a] {
			return ClassWrite
		}
		if gitReadSubcommands[a] {
			return ClassRead
		}
		return ClassUnknown
	}
	return ClassUnknown
}
