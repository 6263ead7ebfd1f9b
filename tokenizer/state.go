package tokenizer

// State is the tokeniser's current position in the ~45-state HTML5
// tokenization state machine (§6 "Tokeniser state enumeration"). It is
// exported for diagnostics and tests; callers never set it directly.
type State int

const (
	DataState State = iota
	CharacterReferenceInDataState
	TagOpenState
	CloseTagOpenState
	CloseTagMatchState
	TagNameState
	BeforeAttributeNameState
	AttributeNameState
	AfterAttributeNameState
	BeforeAttributeValueState
	AttributeValueDQState
	AttributeValueSQState
	AttributeValueUQState
	CharacterReferenceInAttributeValueState
	AfterAttributeValueQState
	SelfClosingStartTagState
	BogusCommentState
	MarkupDeclarationOpenState
	MatchCommentState
	CommentStartState
	CommentStartDashState
	CommentState
	CommentEndDashState
	CommentEndState
	CommentEndBangState
	MatchDoctypeState
	DoctypeState
	BeforeDoctypeNameState
	DoctypeNameState
	AfterDoctypeNameState
	MatchPublicState
	BeforeDoctypePublicState
	DoctypePublicDQState
	DoctypePublicSQState
	AfterDoctypePublicState
	BetweenDoctypePublicAndSystemState
	MatchSystemState
	BeforeDoctypeSystemState
	DoctypeSystemDQState
	DoctypeSystemSQState
	AfterDoctypeSystemState
	BogusDoctypeState
	MatchCdataState
	CdataBlockState
	NumberedEntityState
	NamedEntityState
)

// ContentModel selects how subsequent characters are lexed (§3, GLOSSARY).
type ContentModel int

const (
	PCDATA ContentModel = iota
	RCDATA
	CDATA
	PLAINTEXT
)

func (c ContentModel) String() string {
	switch c {
	case RCDATA:
		return "RCDATA"
	case CDATA:
		return "CDATA"
	case PLAINTEXT:
		return "PLAINTEXT"
	default:
		return "PCDATA"
	}
}
