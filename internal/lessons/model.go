package lessons

// CognitiveLevel classifies a learning objective on a Bloom-style scale.
type CognitiveLevel string

const (
	CognitiveRemember   CognitiveLevel = "remember"
	CognitiveUnderstand CognitiveLevel = "understand"
	CognitiveApply      CognitiveLevel = "apply"
	CognitiveAnalyze    CognitiveLevel = "analyze"
	CognitiveEvaluate   CognitiveLevel = "evaluate"
	CognitiveCreate     CognitiveLevel = "create"
)

// LearningObjective is one objective the generated lesson must address.
type LearningObjective struct {
	ID             string         `json:"id"`
	Statement      string         `json:"statement"`
	CognitiveLevel CognitiveLevel `json:"cognitiveLevel"`
}

// SectionOutline constrains one section of the generated lesson.
type SectionOutline struct {
	Title              string   `json:"title"`
	Archetype          string   `json:"archetype"`
	DepthConstraint    string   `json:"depthConstraint,omitempty"`
	RequiredKeywords   []string `json:"requiredKeywords,omitempty"`
	ProhibitedKeywords []string `json:"prohibitedKeywords,omitempty"`
	KeyPoints          []string `json:"keyPoints,omitempty"`
}

// ExerciseSpec describes an exercise the lesson is expected to contain.
type ExerciseSpec struct {
	ID     string `json:"id"`
	Prompt string `json:"prompt"`
	Kind   string `json:"kind,omitempty"`
}

// RAGContext carries retrieval metadata from the generation pipeline.
type RAGContext struct {
	ExpectedChunkCount int      `json:"expectedChunkCount"`
	SourceDocumentIDs  []string `json:"sourceDocumentIds,omitempty"`
}

// Specification is the generation contract a candidate lesson is judged
// against. It is produced upstream and consumed read-only.
type Specification struct {
	LessonID   string              `json:"lessonId"`
	Title      string              `json:"title"`
	Objectives []LearningObjective `json:"objectives"`
	Sections   []SectionOutline    `json:"sections"`
	Exercises  []ExerciseSpec      `json:"exercises,omitempty"`
	RAG        RAGContext          `json:"rag"`
}

// Citation references a source chunk backing a claim in a section.
type Citation struct {
	SourceDocumentID string `json:"sourceDocumentId"`
	ChunkIndex       int    `json:"chunkIndex"`
}

// Section is one rendered section of candidate lesson content.
type Section struct {
	Title     string     `json:"title"`
	Prose     string     `json:"prose"`
	Citations []Citation `json:"citations,omitempty"`
}

// WorkedExample is a fully worked-through example in the lesson body.
type WorkedExample struct {
	Title       string `json:"title,omitempty"`
	Problem     string `json:"problem"`
	Walkthrough string `json:"walkthrough"`
}

// Exercise is a practice item with hints, a solution, and a grading rubric.
type Exercise struct {
	Question string   `json:"question"`
	Hints    []string `json:"hints,omitempty"`
	Solution string   `json:"solution"`
	Rubric   string   `json:"rubric,omitempty"`
}

// ContentBody is the candidate lesson output being judged. The judge core
// only reads and scores it.
type ContentBody struct {
	Intro     string          `json:"intro"`
	Sections  []Section       `json:"sections"`
	Examples  []WorkedExample `json:"examples"`
	Exercises []Exercise      `json:"exercises"`
}
