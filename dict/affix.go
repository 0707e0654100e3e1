package dict

import (
	"strconv"
	"strings"
	"unicode"
)

// importAffixes reads an affix file. It starts with the legacy Ispell parser
// and, on the first extended-format directive, re-reads the whole file with
// the Hunspell parser. Mixing both styles in one file is a ConfigError.
func (b *builder) importAffixes(path string) error {
	lines, err := readLines(path)
	if err != nil {
		return err
	}

	b.flagMode = FlagChar
	b.usesCompound = false
	b.usesAliases = false

	var (
		suffixes  bool
		prefixes  bool
		oldFormat bool
		flag      string
		flagflags byte
	)

	for ln, raw := range lines {
		pstr := strings.ToLower(raw)
		// Unlike the extended format, legacy entries may be indented, so
		// only comments and empty lines are skipped.
		if pstr == "" || pstr[0] == '#' {
			continue
		}

		if strings.HasPrefix(pstr, "compoundwords") {
			// "compoundwords controlled <flag>": the flag follows the token
			// containing an 'l'.
			if f, ok := compoundwordsFlag(raw); ok {
				if err := b.addCompoundFlag(path, ln+1, f, cfAny); err != nil {
					return err
				}
				oldFormat = true
				continue
			}
		}
		if strings.HasPrefix(pstr, "suffixes") {
			suffixes, prefixes = true, false
			oldFormat = true
			continue
		}
		if strings.HasPrefix(pstr, "prefixes") {
			suffixes, prefixes = false, true
			oldFormat = true
			continue
		}
		if strings.HasPrefix(pstr, "flag") {
			s := strings.TrimLeft(raw[4:], " \t")
			flagflags = 0
			if strings.HasPrefix(s, "*") {
				flagflags |= cfCross
				s = s[1:]
			} else if strings.HasPrefix(s, "~") {
				flagflags |= cfOnly
				s = s[1:]
			}
			s = strings.TrimPrefix(s, "\\")

			// An old-format flag is one ASCII character followed by EOL,
			// whitespace, or ':'. Anything else means extended format.
			if len(s) > 0 && s[0] < 0x80 {
				rest := s[1:]
				if rest == "" || rest[0] == '#' || rest[0] == ':' ||
					rest[0] == ' ' || rest[0] == '\t' {
					flag = s[:1]
					oldFormat = true
					continue
				}
			}
			return b.finishLegacy(path, oldFormat, lines)
		}
		if strings.HasPrefix(raw, "COMPOUNDFLAG") ||
			strings.HasPrefix(raw, "COMPOUNDMIN") ||
			strings.HasPrefix(raw, "PFX") ||
			strings.HasPrefix(raw, "SFX") {
			return b.finishLegacy(path, oldFormat, lines)
		}

		if !suffixes && !prefixes {
			continue
		}

		mask, strip, add, ok, err := parseLegacyEntry(pstr)
		if err != nil {
			return configErrf(path, ln+1, "syntax error")
		}
		if !ok {
			continue
		}
		kind := byte(kindPrefix)
		if suffixes {
			kind = kindSuffix
		}
		if err := b.addAffix(path, ln+1, flag, flagflags, mask, strip, add, kind); err != nil {
			return err
		}
	}
	return nil
}

// finishLegacy hands the file over to the extended-format importer, unless
// legacy commands were already consumed.
func (b *builder) finishLegacy(path string, oldFormat bool, lines []string) error {
	if oldFormat {
		return configErrf(path, 0, "affix file contains both old-style and new-style commands")
	}
	return b.importExtendedAffixes(path, lines)
}

func isSkippableLine(s string) bool {
	if s == "" || s[0] == '#' {
		return true
	}
	r := []rune(s[:1])
	return unicode.IsSpace(r[0])
}

func compoundwordsFlag(raw string) (string, bool) {
	fields := strings.Fields(raw)
	for i, f := range fields {
		if strings.ContainsAny(f, "lL") && i+1 < len(fields) {
			next := fields[i+1]
			if len(next) > 0 && next[0] < 0x80 {
				return next[:1], true
			}
			return "", false
		}
	}
	return "", false
}

// parseLegacyEntry parses an Ispell-format affix body line:
//
//	mask > [-strip,]add
//
// Spaces are insignificant, '#' starts a comment. ok is false for lines that
// carry no rule; a malformed line yields an error.
func parseLegacyEntry(s string) (mask, strip, add string, ok bool, err error) {
	const (
		waitMask = iota
		inMask
		waitStrip
		inStrip
		waitAdd
		inAdd
	)
	var bMask, bStrip, bAdd strings.Builder
	state := waitMask

loop:
	for _, r := range s {
		switch state {
		case waitMask:
			if r == '#' {
				return "", "", "", false, nil
			}
			if !unicode.IsSpace(r) {
				bMask.WriteRune(r)
				state = inMask
			}
		case inMask:
			if r == '>' {
				state = waitStrip
			} else if !unicode.IsSpace(r) {
				bMask.WriteRune(r)
			}
		case waitStrip:
			switch {
			case r == '-':
				state = inStrip
			case unicode.IsLetter(r) || r == '\'':
				bAdd.WriteRune(r)
				state = inAdd
			case !unicode.IsSpace(r):
				return "", "", "", false, errSyntax
			}
		case inStrip:
			switch {
			case r == ',':
				state = waitAdd
			case unicode.IsLetter(r):
				bStrip.WriteRune(r)
			case !unicode.IsSpace(r):
				return "", "", "", false, errSyntax
			}
		case waitAdd:
			switch {
			case r == '-':
				break loop // void add-string
			case unicode.IsLetter(r):
				bAdd.WriteRune(r)
				state = inAdd
			case !unicode.IsSpace(r):
				return "", "", "", false, errSyntax
			}
		case inAdd:
			switch {
			case r == '#':
				break loop
			case unicode.IsLetter(r):
				bAdd.WriteRune(r)
			case !unicode.IsSpace(r):
				return "", "", "", false, errSyntax
			}
		}
	}

	mask, strip, add = bMask.String(), bStrip.String(), bAdd.String()
	ok = mask != "" && (strip != "" || add != "")
	return mask, strip, add, ok, nil
}

var errSyntax = &ConfigError{Msg: "syntax error"}

// importExtendedAffixes parses the Hunspell-style format. The first pass
// collects compound-control directives and the flag mode; the second parses
// alias tables and affix entries.
func (b *builder) importExtendedAffixes(path string, lines []string) error {
	directives := []struct {
		name  string
		value byte
	}{
		{"COMPOUNDFLAG", cfAny},
		{"COMPOUNDBEGIN", cfBegin},
		{"COMPOUNDLAST", cfLast},
		{"COMPOUNDEND", cfLast}, // synonym
		{"COMPOUNDMIDDLE", cfMiddle},
		{"ONLYINCOMPOUND", cfOnly},
		{"COMPOUNDPERMITFLAG", cfPermit},
		{"COMPOUNDFORBIDFLAG", cfForbid},
	}

	for ln, raw := range lines {
		if isSkippableLine(raw) {
			continue
		}
		matched := false
		for _, d := range directives {
			if strings.HasPrefix(raw, d.name) {
				if err := b.addCompoundFlag(path, ln+1, raw[len(d.name):], d.value); err != nil {
					return err
				}
				matched = true
				break
			}
		}
		if matched {
			continue
		}
		if strings.HasPrefix(raw, "FLAG") {
			s := strings.TrimSpace(raw[4:])
			switch {
			case s == "" || strings.HasPrefix(s, "default"):
				b.flagMode = FlagChar
			case strings.HasPrefix(s, "long"):
				b.flagMode = FlagLong
			case strings.HasPrefix(s, "num"):
				b.flagMode = FlagNum
			default:
				return configErrf(path, ln+1,
					`only "default", "long", and "num" flag values are supported`)
			}
		}
	}

	if err := b.sortCompoundFlags(path); err != nil {
		return err
	}

	var (
		isSuffix    bool
		headerFlags byte
	)
	for ln, raw := range lines {
		if isSkippableLine(raw) {
			continue
		}
		ptype, flag, strip, add, mask, n := parseExtendedEntry(raw)
		ptype = strings.ToLower(ptype)

		if ptype == "af" {
			if !b.usesAliases {
				// First AF line declares the alias count; index 0 is the
				// reserved empty set.
				b.usesAliases = true
				if cnt, err := strconv.Atoi(flag); err != nil || cnt == 0 {
					return configErrf(path, ln+1, "invalid number of flag vector aliases")
				}
				if _, err := b.sets.add(nil); err != nil {
					return err
				}
			} else {
				if _, err := b.sets.add([]byte(flag)); err != nil {
					return err
				}
			}
			continue
		}
		if n < 4 || (ptype != "sfx" && ptype != "pfx") {
			continue
		}
		if len(flag) == 0 ||
			(len(flag) > 1 && b.flagMode == FlagChar) ||
			(len(flag) > 2 && b.flagMode == FlagLong) {
			continue
		}

		if n == 4 {
			// Header: SFX <flag> <cross> <count>
			isSuffix = ptype == "sfx"
			headerFlags = 0
			if strip == "y" || strip == "Y" {
				headerFlags = cfCross
			}
			continue
		}

		// Body: SFX <flag> <strip> <add>[/<flags>] <condition>
		var aflg byte
		if i := strings.IndexByte(add, '/'); i >= 0 {
			set, err := b.aliasFlagSet(path, ln+1, add[i+1:])
			if err != nil {
				return err
			}
			aflg = b.compoundFlagValue(set)
			add = add[:i]
		}
		pstrip := b.lower(strip)
		padd := b.lower(add)
		pmask := b.lower(mask)
		if strip == "0" {
			pstrip = ""
		}
		if add == "0" {
			padd = ""
		}

		kind := byte(kindPrefix)
		if isSuffix {
			kind = kindSuffix
		}
		if err := b.addAffix(path, ln+1, flag, headerFlags|aflg, pmask, pstrip, padd, kind); err != nil {
			return err
		}
	}
	return nil
}

// parseExtendedEntry splits a Hunspell affix line into at most five
// whitespace-separated fields. A field starting with '#' ends the line.
func parseExtendedEntry(s string) (typ, flag, strip, add, mask string, n int) {
	out := []*string{&typ, &flag, &strip, &add, &mask}
	for _, f := range strings.Fields(s) {
		if f[0] == '#' || n == len(out) {
			break
		}
		*out[n] = f
		n++
	}
	return typ, flag, strip, add, mask, n
}

// aliasFlagSet resolves a flag reference from an affix entry: an index into
// the AF alias table when aliases are in use, the literal text otherwise.
func (b *builder) aliasFlagSet(path string, line int, s string) ([]byte, error) {
	if !b.usesAliases || s == "" {
		return []byte(s), nil
	}
	idx, err := strconv.Atoi(s)
	if err != nil {
		return nil, configErrf(path, line, "invalid affix alias %q", s)
	}
	if idx > 0 && idx < len(b.sets.sets) {
		return b.sets.get(uint32(idx)), nil
	}
	return nil, nil
}
