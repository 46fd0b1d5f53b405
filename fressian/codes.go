package fressian

// Wire codes. Ranges marked "packed" carry part of their payload in the
// code byte itself.
const (
	codePriorityCachePackedStart = 0x80 // packed, index < 32
	codePriorityCachePackedEnd   = 0xA0
	codeStructCachePackedStart   = 0xA0 // packed, index < 16
	codeStructCachePackedEnd     = 0xB0

	codeLongArray    = 0xB0
	codeDoubleArray  = 0xB1
	codeBooleanArray = 0xB2
	codeIntArray     = 0xB3
	codeFloatArray   = 0xB4
	codeObjectArray  = 0xB5

	codeMap              = 0xC0
	codeSet              = 0xC1
	codeUUID             = 0xC3
	codeRegex            = 0xC4
	codeURI              = 0xC5
	codeBigInt           = 0xC6
	codeBigDec           = 0xC7
	codeInst             = 0xC8
	codeSym              = 0xC9
	codeKey              = 0xCA
	codeGetPriorityCache = 0xCC
	codePutPriorityCache = 0xCD
	codePrecache         = 0xCE
	codeFooter           = 0xCF

	codeBytesPackedStart = 0xD0 // packed, length < 8
	codeBytesPackedEnd   = 0xD8
	codeBytesChunk       = 0xD8
	codeBytes            = 0xD9

	codeStringPackedStart = 0xDA // packed, length < 8
	codeStringPackedEnd   = 0xE2
	codeStringChunk       = 0xE2
	codeString            = 0xE3

	codeListPackedStart = 0xE4 // packed, length < 8
	codeListPackedEnd   = 0xEC
	codeList            = 0xEC
	codeBeginClosedList = 0xED
	codeBeginOpenList   = 0xEE

	codeStructType = 0xEF
	codeStruct     = 0xF0
	codeMeta       = 0xF1

	codeAny    = 0xF4
	codeTrue   = 0xF5
	codeFalse  = 0xF6
	codeNull   = 0xF7
	codeInt    = 0xF8
	codeFloat  = 0xF9
	codeDouble = 0xFA
	// codeDouble0 is only used for the bit pattern of +0.0.
	codeDouble0       = 0xFB
	codeDouble1       = 0xFC
	codeEndCollection = 0xFD
	codeResetCaches   = 0xFE
	codeIntPackedNeg1 = 0xFF

	// Packed ints. Range N carries N-1 trailing bytes; the value is
	// (code - zero) << (8 * (N-1)) | trailing bytes.
	codeIntPacked2Start = 0x40
	codeIntPacked2Zero  = 0x50
	codeIntPacked3Start = 0x60
	codeIntPacked3Zero  = 0x68
	codeIntPacked4Start = 0x70
	codeIntPacked4Zero  = 0x72
	codeIntPacked5Start = 0x74
	codeIntPacked5Zero  = 0x76
	codeIntPacked6Start = 0x78
	codeIntPacked6Zero  = 0x7A
	codeIntPacked7Start = 0x7C
	codeIntPacked7Zero  = 0x7E
	codeIntPackedEnd    = 0x80
)

// Codes exported for callers that inspect UnmatchedCode errors.
const (
	CodeString = codeString
	CodeInt    = codeInt
	CodeBytes  = codeBytes
	CodeList   = codeList
	CodeAny    = codeAny
)

const (
	chunkSize      = 65535
	packedMax      = 8
	priorityPacked = 32
	structPacked   = 16

	footerMagic = 0xCFCFCFCF
	footerSize  = 12

	// tagChar is the struct tag a Char travels under.
	tagChar = "char"
)
