package dict

// Compiled image format. Everything is little-endian and referenced by index
// or by offset relative to a section start, never by pointer, so the buffer
// can be mapped at any address.

const (
	imageMagic = 0x53504C58 // "XLPS"

	// FormatVersion identifies the image layout. Readers reject any other
	// value.
	FormatVersion = 1
)

const (
	secWordNodes = iota
	secWordChildren
	secSetOffsets
	secSetHeap
	secRules
	secStringHeap
	secPrefixNodes
	secPrefixChildren
	secSuffixNodes
	secSuffixChildren
	secRuleLists
	secCompound

	sectionCount
)

const (
	dirOffset  = 44
	headerSize = dirOffset + sectionCount*8

	wordNodeSize   = 8
	wordChildSize  = 12
	ruleSize       = 28
	affixNodeSize  = 8
	affixChildSize = 16
)

func getU32(b []byte, off int) uint32 {
	return uint32(b[off]) | uint32(b[off+1])<<8 | uint32(b[off+2])<<16 | uint32(b[off+3])<<24
}

func getU16(b []byte, off int) uint16 {
	return uint16(b[off]) | uint16(b[off+1])<<8
}

// Image is a read-only view over a compiled dictionary buffer. It holds
// slices into the buffer and never copies or mutates it, so one buffer in
// shared memory can back an Image in every attached process. The condition
// pattern cache is the only mutable state and is process-local.
type Image struct {
	data []byte

	flagMode     FlagMode
	usesCompound bool
	usesAliases  bool

	wordRoot   uint32
	prefixRoot uint32
	suffixRoot uint32

	prefixVoidOff   uint32
	prefixVoidCount uint32
	suffixVoidOff   uint32
	suffixVoidCount uint32

	wordNodes    []byte
	wordChildren []byte
	setOffs      []byte
	setHeap      []byte
	rules        []byte
	strHeap      []byte
	affixNodes   [2][]byte
	affixKids    [2][]byte
	ruleLists    []byte
	compound     []byte

	patterns patternTable
}

// Open validates a compiled dictionary buffer and returns a view over it.
// The buffer is checked structurally up front: magic, version, section
// bounds, and every index reference. After Open succeeds, lookups index the
// buffer without further bounds checks.
func Open(data []byte) (*Image, error) {
	if len(data) < headerSize {
		return nil, ErrInvalidMagic
	}
	if getU32(data, 0) != imageMagic {
		return nil, ErrInvalidMagic
	}
	if getU32(data, 4) != FormatVersion {
		return nil, ErrInvalidVersion
	}
	if getU32(data, 40) != sectionCount {
		return nil, invariantf("section count %d", getU32(data, 40))
	}

	img := &Image{
		data:            data,
		flagMode:        FlagMode(data[8]),
		usesCompound:    data[9] != 0,
		usesAliases:     data[10] != 0,
		wordRoot:        getU32(data, 12),
		prefixRoot:      getU32(data, 16),
		suffixRoot:      getU32(data, 20),
		prefixVoidOff:   getU32(data, 24),
		prefixVoidCount: getU32(data, 28),
		suffixVoidOff:   getU32(data, 32),
		suffixVoidCount: getU32(data, 36),
	}
	if img.flagMode > FlagNum {
		return nil, invariantf("flag mode %d", img.flagMode)
	}

	var secs [sectionCount][]byte
	for i := 0; i < sectionCount; i++ {
		off := int64(getU32(data, dirOffset+i*8))
		n := int64(getU32(data, dirOffset+i*8+4))
		if off < headerSize || off+n > int64(len(data)) {
			return nil, invariantf("section %d out of bounds", i)
		}
		secs[i] = data[off : off+n : off+n]
	}
	img.wordNodes = secs[secWordNodes]
	img.wordChildren = secs[secWordChildren]
	img.setOffs = secs[secSetOffsets]
	img.setHeap = secs[secSetHeap]
	img.rules = secs[secRules]
	img.strHeap = secs[secStringHeap]
	img.affixNodes[kindPrefix] = secs[secPrefixNodes]
	img.affixKids[kindPrefix] = secs[secPrefixChildren]
	img.affixNodes[kindSuffix] = secs[secSuffixNodes]
	img.affixKids[kindSuffix] = secs[secSuffixChildren]
	img.ruleLists = secs[secRuleLists]
	img.compound = secs[secCompound]

	if err := img.validate(); err != nil {
		return nil, err
	}
	img.patterns.init(img.numRules())
	return img, nil
}

func (img *Image) validate() error {
	for sec, rec := range map[int]int{
		secWordNodes:      wordNodeSize,
		secWordChildren:   wordChildSize,
		secSetOffsets:     4,
		secRules:          ruleSize,
		secPrefixNodes:    affixNodeSize,
		secPrefixChildren: affixChildSize,
		secSuffixNodes:    affixNodeSize,
		secSuffixChildren: affixChildSize,
		secRuleLists:      4,
		secCompound:       4,
	} {
		n := int(getU32(img.data, dirOffset+sec*8+4))
		if n%rec != 0 {
			return invariantf("section %d length %d not a %d-byte multiple", sec, n, rec)
		}
	}

	nSets := img.numFlagSets()
	if len(img.setOffs) > 0 {
		if nSets < 0 {
			return invariantf("flag set offset table too short")
		}
		prev := uint32(0)
		for i := 0; i <= nSets; i++ {
			o := getU32(img.setOffs, i*4)
			if o < prev || o > uint32(len(img.setHeap)) {
				return invariantf("flag set offset %d out of order", i)
			}
			prev = o
		}
	}

	nWordNodes := len(img.wordNodes) / wordNodeSize
	nWordKids := len(img.wordChildren) / wordChildSize
	if img.wordRoot != invalidIndex && img.wordRoot >= uint32(nWordNodes) {
		return invariantf("word trie root %d out of range", img.wordRoot)
	}
	for i := 0; i < nWordNodes; i++ {
		off, cnt := getU32(img.wordNodes, i*wordNodeSize), getU32(img.wordNodes, i*wordNodeSize+4)
		if uint64(off)+uint64(cnt) > uint64(nWordKids) {
			return invariantf("word node %d children out of range", i)
		}
	}
	for i := 0; i < nWordKids; i++ {
		c := img.wordChildAt(uint32(i))
		if c.node != invalidIndex && c.node >= uint32(nWordNodes) {
			return invariantf("word child %d subtree out of range", i)
		}
		if c.isWord && c.set != invalidIndex && int(c.set) >= nSets {
			return invariantf("word child %d flag set out of range", i)
		}
	}

	nRules := img.numRules()
	for i := 0; i < nRules; i++ {
		off := i * ruleSize
		end := uint64(len(img.strHeap))
		for _, ref := range [][2]uint64{
			{uint64(getU32(img.rules, off+4)), uint64(img.rules[off+3])},
			{uint64(getU32(img.rules, off+8)), uint64(getU16(img.rules, off+20))},
			{uint64(getU32(img.rules, off+12)), uint64(getU16(img.rules, off+22))},
			{uint64(getU32(img.rules, off+16)), uint64(getU16(img.rules, off+24))},
		} {
			if ref[0]+ref[1] > end {
				return invariantf("rule %d string out of range", i)
			}
		}
	}

	nLists := len(img.ruleLists) / 4
	for i := 0; i < nLists; i++ {
		if int(getU32(img.ruleLists, i*4)) >= nRules {
			return invariantf("rule list entry %d out of range", i)
		}
	}
	for i := 0; i < len(img.compound)/4; i++ {
		if int(getU32(img.compound, i*4)) >= nRules {
			return invariantf("compound index entry %d out of range", i)
		}
	}

	for kind := kindPrefix; kind <= kindSuffix; kind++ {
		nodes, kids := img.affixNodes[kind], img.affixKids[kind]
		nNodes, nKids := len(nodes)/affixNodeSize, len(kids)/affixChildSize
		root := img.prefixRoot
		if kind == kindSuffix {
			root = img.suffixRoot
		}
		if root != invalidIndex && root >= uint32(nNodes) {
			return invariantf("affix trie root %d out of range", root)
		}
		for i := 0; i < nNodes; i++ {
			off, cnt := getU32(nodes, i*affixNodeSize), getU32(nodes, i*affixNodeSize+4)
			if uint64(off)+uint64(cnt) > uint64(nKids) {
				return invariantf("affix node %d children out of range", i)
			}
		}
		for i := 0; i < nKids; i++ {
			off := i * affixChildSize
			node := getU32(kids, off+12)
			if node != invalidIndex && node >= uint32(nNodes) {
				return invariantf("affix child %d subtree out of range", i)
			}
			ro, rc := getU32(kids, off+4), getU32(kids, off+8)
			if uint64(ro)+uint64(rc) > uint64(nLists) {
				return invariantf("affix child %d rule list out of range", i)
			}
		}
	}
	for _, run := range [][2]uint32{
		{img.prefixVoidOff, img.prefixVoidCount},
		{img.suffixVoidOff, img.suffixVoidCount},
	} {
		if uint64(run[0])+uint64(run[1]) > uint64(nLists) {
			return invariantf("void rule run out of range")
		}
	}
	return nil
}

// Bytes returns the underlying buffer.
func (img *Image) Bytes() []byte { return img.data }

// Size returns the image size in bytes.
func (img *Image) Size() int { return len(img.data) }

// FlagMode returns the affix flag encoding the dictionary was compiled with.
func (img *Image) FlagMode() FlagMode { return img.flagMode }

// UsesCompound reports whether the dictionary declares compound-word rules.
func (img *Image) UsesCompound() bool { return img.usesCompound }

// Stats summarizes a compiled image.
type Stats struct {
	Size          int
	FlagMode      FlagMode
	UsesCompound  bool
	WordNodes     int
	AffixRules    int
	FlagSets      int
	CompoundRules int
}

func (img *Image) Stats() Stats {
	return Stats{
		Size:          len(img.data),
		FlagMode:      img.flagMode,
		UsesCompound:  img.usesCompound,
		WordNodes:     len(img.wordNodes) / wordNodeSize,
		AffixRules:    img.numRules(),
		FlagSets:      img.numFlagSets(),
		CompoundRules: img.numCompound(),
	}
}

func (img *Image) numFlagSets() int { return len(img.setOffs)/4 - 1 }

func (img *Image) numRules() int { return len(img.rules) / ruleSize }

func (img *Image) flagSet(i uint32) []byte {
	if i == invalidIndex || int(i) >= img.numFlagSets() {
		return nil
	}
	lo := getU32(img.setOffs, int(i)*4)
	hi := getU32(img.setOffs, int(i)*4+4)
	return img.setHeap[lo:hi]
}

type wordChildView struct {
	val      byte
	isWord   bool
	compound byte
	set      uint32
	node     uint32
}

func (img *Image) wordNodeAt(i uint32) (childOff, childCount uint32) {
	off := int(i) * wordNodeSize
	return getU32(img.wordNodes, off), getU32(img.wordNodes, off+4)
}

func (img *Image) wordChildAt(i uint32) wordChildView {
	off := int(i) * wordChildSize
	return wordChildView{
		val:      img.wordChildren[off],
		isWord:   img.wordChildren[off+1] != 0,
		compound: img.wordChildren[off+2],
		set:      getU32(img.wordChildren, off+4),
		node:     getU32(img.wordChildren, off+8),
	}
}

// ruleView is a zero-copy view of one affix rule record.
type ruleView struct {
	idx       uint32
	kind      byte
	flagflags byte
	isSimple  bool
	flag      []byte
	strip     []byte
	add       []byte
	cond      []byte
}

func (img *Image) ruleAt(i uint32) ruleView {
	off := int(i) * ruleSize
	str := func(o, n int) []byte {
		s := getU32(img.rules, off+o)
		return img.strHeap[s : int(s)+n]
	}
	return ruleView{
		idx:       i,
		kind:      img.rules[off],
		flagflags: img.rules[off+1],
		isSimple:  img.rules[off+2] != 0,
		flag:      str(4, int(img.rules[off+3])),
		strip:     str(8, int(getU16(img.rules, off+20))),
		add:       str(12, int(getU16(img.rules, off+22))),
		cond:      str(16, int(getU16(img.rules, off+24))),
	}
}

type affixChildView struct {
	val       byte
	ruleOff   uint32
	ruleCount uint32
	node      uint32
}

func (img *Image) affixNodeAt(kind byte, i uint32) (childOff, childCount uint32) {
	off := int(i) * affixNodeSize
	return getU32(img.affixNodes[kind], off), getU32(img.affixNodes[kind], off+4)
}

func (img *Image) affixChildAt(kind byte, i uint32) affixChildView {
	off := int(i) * affixChildSize
	kids := img.affixKids[kind]
	return affixChildView{
		val:       kids[off],
		ruleOff:   getU32(kids, off+4),
		ruleCount: getU32(kids, off+8),
		node:      getU32(kids, off+12),
	}
}

func (img *Image) ruleListAt(i uint32) uint32 {
	return getU32(img.ruleLists, int(i)*4)
}

func (img *Image) numCompound() int { return len(img.compound) / 4 }

func (img *Image) compoundRuleAt(i int) ruleView {
	return img.ruleAt(getU32(img.compound, i*4))
}
