package service

import "fmt"

// NoContextAnswer is returned when retrieval finds nothing to ground an answer on.
const NoContextAnswer = "I couldn't find relevant research in the knowledge base to answer your question. " +
	"Please make sure the documents have been processed and uploaded to the vector database."

// prompts holds the language specific templates of the assistant.
type prompts struct {
	system         string
	withContext    string // question, context
	withoutContext string // question
	adaptations    string // activity type, subject
	exercises      string // topic, grade part
	gradePart      string // grade
	assessment     string // assessment type
	title          string
	questionLabel  string
	answerLabel    string
	sourcesLabel   string
	sourceLine     string // source, author
	sectionLine    string // section, page
	scoreLine      string // score
}

var promptSets = map[string]prompts{
	"fr": {
		system: `Vous êtes un assistant pédagogique expert spécialisé dans la création de contenu éducatif adapté aux élèves dyslexiques.

Votre rôle est de CRÉER DIRECTEMENT du contenu pédagogique adapté (textes de cours, exercices, consignes) pour les élèves dyslexiques, en vous basant sur la recherche académique.

RÈGLES IMPORTANTES :
1. Quand on vous demande d'adapter un contenu, RÉÉCRIVEZ-LE DIRECTEMENT avec les adaptations
2. Ne donnez PAS de conseils ou d'instructions sur "comment faire" - CRÉEZ le contenu adapté
3. Utilisez des phrases courtes et simples
4. Employez un vocabulaire accessible
5. Structurez clairement avec des titres et sous-titres
6. Ajoutez des exemples concrets et visuels
7. Évitez les phrases négatives complexes
8. Numérotez les étapes quand c'est nécessaire

STYLE D'ADAPTATION :
- Vocabulaire : privilégier les mots courants
- Structure : titres clairs, listes à puces, étapes numérotées
- Exemples : concrets et familiers aux élèves

Quand vous adaptez, basez-vous sur le contexte de recherche fourni pour garantir que vos adaptations sont scientifiquement fondées.

IMPORTANT: Répondez TOUJOURS en français, même si la question est posée en anglais. CRÉEZ le contenu adapté, ne donnez pas de conseils.`,
		withContext: `Basé sur la recherche suivante sur la dyslexie, veuillez répondre à cette question d'enseignant :

QUESTION : %s

CONTEXTE DE RECHERCHE :
%s

Veuillez fournir des conseils pratiques et fondés sur des preuves pour adapter les méthodes d'enseignement, les exercices ou le matériel de cours pour les élèves dyslexiques. Incluez des exemples spécifiques et citez les sources pertinentes quand c'est possible.`,
		withoutContext: `En tant qu'expert en dyslexie et éducation inclusive, veuillez répondre à cette question d'enseignant :

QUESTION : %s

Veuillez fournir des conseils pratiques et fondés sur des preuves pour adapter les méthodes d'enseignement, les exercices ou le matériel de cours pour les élèves dyslexiques.`,
		adaptations:   "Comment puis-je adapter les activités de %s en %s pour les élèves dyslexiques ? Quels aménagements et modifications spécifiques dois-je considérer ?",
		exercises:     "Quels sont des exercices et activités efficaces et adaptés aux dyslexiques pour enseigner %s%s ? Veuillez fournir des exemples spécifiques avec des instructions claires.",
		gradePart:     " pour les élèves de %s",
		assessment:    "Comment dois-je modifier les évaluations de type %s pour les rendre plus accessibles aux élèves dyslexiques ? Quelles méthodes d'évaluation alternatives sont efficaces ?",
		title:         "ASSISTANT PÉDAGOGIQUE DYSLEXIE",
		questionLabel: "QUESTION : ",
		answerLabel:   "RÉPONSE :",
		sourcesLabel:  "SOURCES :",
		sourceLine:    "%s par %s",
		sectionLine:   "   Section : %s, Page : %d",
		scoreLine:     "   Score de pertinence : %.3f",
	},
	"en": {
		system: `You are an expert teaching assistant who creates educational content adapted for dyslexic students.

Your job is to WRITE the adapted material directly (lesson text, exercises, instructions), grounded in academic research.

RULES:
1. When asked to adapt content, REWRITE it with the adaptations applied
2. Do NOT give advice about "how to do it" - CREATE the adapted content
3. Use short, simple sentences
4. Use accessible vocabulary
5. Structure clearly with headings and subheadings
6. Add concrete, visual examples
7. Avoid complex negative phrasing
8. Number the steps when useful

ADAPTATION STYLE:
- Vocabulary: prefer common words
- Structure: clear headings, bullet lists, numbered steps
- Examples: concrete and familiar to students

Base your adaptations on the research context provided so they are scientifically grounded. CREATE the adapted content, do not give advice.`,
		withContext: `Based on the following research on dyslexia, please answer this teacher's question:

QUESTION: %s

RESEARCH CONTEXT:
%s

Please provide practical, evidence-based guidance for adapting teaching methods, exercises or course material for dyslexic students. Include specific examples and cite relevant sources when possible.`,
		withoutContext: `As an expert in dyslexia and inclusive education, please answer this teacher's question:

QUESTION: %s

Please provide practical, evidence-based guidance for adapting teaching methods, exercises or course material for dyslexic students.`,
		adaptations:   "How can I adapt %s activities in %s for dyslexic students? What specific accommodations and modifications should I consider?",
		exercises:     "What are effective dyslexia-friendly exercises and activities to teach %s%s? Please provide specific examples with clear instructions.",
		gradePart:     " for students of %s",
		assessment:    "How should I modify %s assessments to make them more accessible for dyslexic students? What alternative assessment methods are effective?",
		title:         "DYSLEXIA TEACHING ASSISTANT",
		questionLabel: "QUESTION: ",
		answerLabel:   "ANSWER:",
		sourcesLabel:  "SOURCES:",
		sourceLine:    "%s by %s",
		sectionLine:   "   Section: %s, Page: %d",
		scoreLine:     "   Relevance score: %.3f",
	},
}

// DefaultLanguage is the language the assistant answers in.
const DefaultLanguage = "fr"

func promptsFor(lang string) (prompts, error) {
	if lang == "" {
		lang = DefaultLanguage
	}
	p, ok := promptSets[lang]
	if !ok {
		return prompts{}, fmt.Errorf("unsupported language %q", lang)
	}
	return p, nil
}
