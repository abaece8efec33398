package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/open-prophetdb/text2knowledge/internal/core/ports/driven"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore loads LLM prompts from user-editable files on disk.
// Prompts are loaded from a configurable directory with fallback to embedded defaults.
//
// The store uses lazy initialisation - files are only created when first accessed,
// not in the constructor. This makes testing easier and avoids unexpected I/O.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

// defaultPrompts contains embedded default prompts.
// These are used when user files don't exist and as the initial content for new files.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var defaultPrompts = map[string]string{
	driven.PromptEntityExtraction: `To ensure the analysis is both comprehensive and accurate, it is crucial to identify and categorize biomedical entities from the text strictly according to the provided categories. Your output should only include entities that fit into the following categories: 'Gene', 'Protein', 'Compound', 'Disease', 'Symptom', 'Pathway', 'Anatomy', 'Metabolite', 'MolecularFunction', 'BiologicalProcess', 'CellularComponent'. Any entities that do not align with these categories must be omitted.

For each identified entity, detail the following in a JSON list format:
- Entity name (it must be a biomedical entity fitting into the provided categories)
- Confidence score from 1 to 5, with 5 being the highest
- The applicable category from the provided list

Please be mindful that accuracy in categorization is paramount, and relevance to the overarching biomedical context is crucial. Non-biomedical entities or entities not fitting the predefined categories should not be included in your output. Here are examples of correctly formatted outputs based on these instructions:

Arguments exist as to the cause of chronic fatigue syndrome (CFS). Some think that it is an example of symptom amplification indicative of functional or psychogenic illness, while our group thinks that some CFS patients may have brain dysfunction. To further pursue our encephalopathy hypothesis, we did spinal taps on 31 women and 13 men fulfilling the 1994 case definition for CFS and on 8 women and 5 men serving as healthy controls. Our outcome measures were white blood cell count, protein concentration in spinal fluid, and cytokines detectable in spinal fluid. We found that significantly more CFS patients had elevations in either protein levels or number of cells than healthy controls (30 versus 0%), and 13 CFS patients had protein levels and cell numbers that were higher than laboratory norms; patients with abnormal fluid had a lower rate of having comorbid depression than those with normal fluid. In addition, of the 11 cytokines detectable in spinal fluid, (i) levels of granulocyte-macrophage colony-stimulating factor were lower in patients than controls, (ii) levels of interleukin-8 (IL-8) were higher in patients with sudden, influenza-like onset than in patients with gradual onset or in controls, and (iii) IL-10 levels were higher in the patients with abnormal spinal fluids than in those with normal fluid or controls. The results support two hypotheses: that some CFS patients have a neurological abnormality that may contribute to the clinical picture of the illness and that immune dysregulation within the central nervous system may be involved in this process.

` + "```" + `
[
    {
        "entity": "Chronic Fatigue Syndrome (CFS)",
        "confidence": "5",
        "category": "Disease"
    },
    {
        "entity": "brain dysfunction",
        "confidence": "4",
        "category": "Symptom"
    },
    {
        "entity": "depression",
        "confidence": "4",
        "category": "Disease"
    },
    {
        "entity": "granulocyte-macrophage colony-stimulating factor",
        "confidence": "4",
        "category": "Protein"
    },
    {
        "entity": "interleukin-8 (IL-8)",
        "confidence": "4",
        "category": "Protein"
    },
    {
        "entity": "IL-10",
        "confidence": "5",
        "category": "Protein"
    },
    {
        "entity": "Neurological abnormality",
        "confidence": "4",
        "category": "Symptom"
    },
    {
        "entity": "Immune dysregulation",
        "confidence": "5",
        "category": "BiologicalProcess"
    },
    {
        "entity": "Central nervous system",
        "confidence": "5",
        "category": "Anatomy"
    }
]
` + "```" + `

Remember, adherence to the category list is non-negotiable. Continuous refinement should be based on aligning strictly with the provided categories, improving the accuracy and relevance of identified entities.`,

	driven.PromptRelationExtraction: `You are a network graph maker who extracts terms and their relations from a given context.
You are provided with a context chunk (delimited by ` + "```" + `) Your task is to extract the ontology
of terms mentioned in the given context. These terms should represent the key concepts as per the context.

Thought 1: While traversing through each sentence, Think about the key terms mentioned in it.
    Terms may include object, entity, location, organization, person,
    condition, acronym, documents, service, concept, etc.
    Terms should be as atomistic as possible

Thought 2: Think about how these terms can have one on one relation with other terms.
    Terms that are mentioned in the same sentence or the same paragraph are typically related to each other.
    Terms can be related to many other terms

Thought 3: Find out the relation between each such related pair of terms.

Format your output as a list of json. Each element of the list contains a pair of terms and the relation between them, like the following:
[
   {
       "source_name": "A concept from extracted ontology",
       "source_type": "The type of the concept, one of Gene, Compound, Disease, Symptom, Pathway, Anatomy, Metabolite, MolecularFunction, BiologicalProcess, CellularComponent.",
       "target_name": "A related concept from extracted ontology",
       "target_type": "The type of the concept, one of Gene, Compound, Disease, Symptom, Pathway, Anatomy, Metabolite, MolecularFunction, BiologicalProcess, CellularComponent.",
       "relation_type": "The type of relation between the two concepts, one of BioMedGPS::AssociatedWith::Gene:Disease, BioMedGPS::Modulator::Compound:Gene, BioMedGPS::Interaction::Gene:Gene, BioMedGPS::VirGeneHumGene::Gene:Gene, BioMedGPS::Activator::Compound:Gene, BioMedGPS::Agonist::Compound:Gene, BioMedGPS::AllostericModulator::Compound:Gene, BioMedGPS::Antagonist::Compound:Gene, BioMedGPS::Antibody::Compound:Gene, BioMedGPS::Binder::Compound:Gene, BioMedGPS::Blocker::Compound:Gene, BioMedGPS::Inhibitor::Compound:Gene, BioMedGPS::AssociatedWith::Compound:Gene, BioMedGPS::Carrier::Compound:Gene, BioMedGPS::Interaction::Compound:Compound, BioMedGPS::Treatment::Compound:Disease, BioMedGPS::AtcClassification::Compound:Atc, BioMedGPS::Binder::Gene:Gene, BioMedGPS::Target::Gene:Disease, BioMedGPS::E+::Compound:Gene, BioMedGPS::E-::Compound:Gene, BioMedGPS::E::Compound:Gene, BioMedGPS::E+::Gene:Gene, BioMedGPS::E::Gene:Gene, BioMedGPS::Promotor::Gene:Disease, BioMedGPS::InComplex::Gene:Gene, BioMedGPS::InPathway::Gene:Gene, BioMedGPS::InTax::Gene:Tax, BioMedGPS::Causer::Compound:Disease, BioMedGPS::Causer::Gene:Disease, BioMedGPS::PharmacoKinetics::Compound:Gene, BioMedGPS::Biomarker::Gene:Disease, BioMedGPS::Biomarker::Compound:Disease, BioMedGPS::Influencer::Gene:Gene, BioMedGPS::SideEffect::Compound:Disease, BioMedGPS::Activator::Gene:Gene, BioMedGPS::Risky::Gene:Disease, BioMedGPS::E-::Anatomy:Gene, BioMedGPS::E::Anatomy:Gene, BioMedGPS::E+::Anatomy:Gene, BioMedGPS::SimilarWith::Compound:Compound, BioMedGPS::E-::Disease:Gene, BioMedGPS::LocatedIn::Disease:Anatomy, BioMedGPS::Present::Disease:Symptom, BioMedGPS::SimilarWith::Disease:Disease, BioMedGPS::E+::Disease:Gene, BioMedGPS::Covary::Gene:Gene, BioMedGPS::InBP::Gene:BiologicalProcess, BioMedGPS::InCC::Gene:CellularComponent, BioMedGPS::InMF::Gene:MolecularFunction, BioMedGPS::InPathway::Gene:Pathway, BioMedGPS::InPC::Compound:PharmacologicClass, BioMedGPS::AdpRibosylationReaction::Gene:Gene, BioMedGPS::AssociatedWith::Gene:Gene, BioMedGPS::CleavageReaction::Gene:Gene, BioMedGPS::InLocation::Gene:Gene, BioMedGPS::DePhosphorylationReaction::Gene:Gene, BioMedGPS::Interaction::Compound:Gene, BioMedGPS::PhosphorylationReaction::Gene:Gene, BioMedGPS::ProteinCleavage::Gene:Gene, BioMedGPS::UbiquitinationReaction::Gene:Gene, BioMedGPS::Inbitor::Gene:Gene, BioMedGPS::PostTranslationalMod::Gene:Gene, BioMedGPS::AssociatedWith::Pathway:Disease, BioMedGPS::AssociatedWith::Gene:Symptom, BioMedGPS::Contraindication::Disease:Compound, BioMedGPS::NE::Anatomy:Gene, BioMedGPS::AssociatedWith::BiologicalProcess:Gene, BioMedGPS::AssociatedWith::BiologicalProcess:Exposure, BioMedGPS::AssociatedWith::CellularComponent:Gene, BioMedGPS::AssociatedWith::CellularComponent:Exposure, BioMedGPS::AssociatedWith::MolecularFunction:Gene, BioMedGPS::AssociatedWith::Gene:Pathway, BioMedGPS::AssociatedWith::Gene:Exposure, BioMedGPS::AssociatedWith::MolecularFunction:Exposure, BioMedGPS::AssociatedWith::Exposure:Disease, BioMedGPS::ParentChild::Anatomy:Anatomy, BioMedGPS::ParentChild::BiologicalProcess:BiologicalProcess, BioMedGPS::ParentChild::CellularComponent:CellularComponent, BioMedGPS::ParentChild::Disease:Disease, BioMedGPS::ParentChild::MolecularFunction:MolecularFunction, BioMedGPS::ParentChild::Pathway:Pathway, BioMedGPS::ParentChild::Symptom:Symptom, BioMedGPS::ParentChild::Exposure:Exposure, BioMedGPS::Absent::Disease:Symptom, BioMedGPS::SideEffect::Compound:Symptom, BioMedGPS::Target::Gene:Compound, BioMedGPS::Transporter::Gene:Compound."
       "key_sentence": "relationship between the two concepts, node_1 and node_2 in one or two sentences"
   }, {...}
]`,

	driven.PromptClassification: `You are a biomedical literature curator. You are given a publication record
(delimited by ` + "```" + `) whose first line is the title and second line is the abstract.
Classify the publication by its main subject matter.

Respond with a single JSON object and nothing else, in the following format:
{
    "category": "The single category that best describes the publication",
    "reason": "One or two sentences explaining why this category applies"
}`,

	driven.PromptEntityReview: `The following entities are extracted by your previous run:
%s

Please carefully review the previously extracted results, following these steps:
1. Verify that each entity extracted aligns precisely with the designated categories. Ensure that the categorization is strict and appropriate.
2. Confirm that all entities listed under each category accurately match the category's criteria.
3. Assess the confidence scores assigned to each extraction. Consider the accuracy and relevance of the entity to its category, adjusting the scores to more accurately reflect the confidence level.
4. If you identify any discrepancies, inaccuracies, or misalignments with the categories, please correct them. Use the same format as the original extraction to present your corrections.

Your review should be thorough, ensuring the final extraction results are both accurate and logically structured according to the outlined categories.`,
}

// NewPromptStore creates a new file-based prompt store.
// If promptDir is empty, defaults to ~/.text2knowledge/prompts/.
//
// The constructor does not perform any I/O - directory creation and
// file writes happen lazily on first Load() call.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		promptDir = filepath.Join(home, ".text2knowledge", "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the prompt template for the given name.
// On first call, initialises the prompt directory and creates default files.
// Returns cached value if available, otherwise loads from file.
// Falls back to embedded default if file doesn't exist.
func (s *PromptStore) Load(name string) (string, error) {
	// Ensure directory and defaults exist (lazy init)
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		// Fall back to embedded defaults if init failed
		if prompt, ok := defaultPrompts[name]; ok {
			return prompt, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	// Check cache first (read lock)
	s.mu.RLock()
	if prompt, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return prompt, nil
	}
	s.mu.RUnlock()

	// Load from file (no lock held during I/O)
	prompt, err := s.loadFromFile(name)
	if err != nil {
		// Fall back to embedded default
		if defaultPrompt, ok := defaultPrompts[name]; ok {
			return defaultPrompt, nil
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	// Cache the result (write lock)
	// Use double-check pattern to avoid overwriting concurrent loads
	s.mu.Lock()
	if _, ok := s.cache[name]; !ok {
		s.cache[name] = prompt
	} else {
		// Another goroutine loaded it first, use their value
		prompt = s.cache[name]
	}
	s.mu.Unlock()

	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// initialise creates the prompt directory and default files.
// Called once via sync.Once on first Load().
func (s *PromptStore) initialise() {
	// Create directory
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	// Create default prompt files (only if they don't exist)
	for name, content := range defaultPrompts {
		path := filepath.Join(s.promptDir, name+".txt")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				return
			}
		}
	}

	// Create README
	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

// loadFromFile reads a prompt from disk.
func (s *PromptStore) loadFromFile(name string) (string, error) {
	path := filepath.Join(s.promptDir, name+".txt")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// createReadme writes a README file explaining the prompts directory.
func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil // Already exists or stat error (ignore)
	}

	content := `# text2knowledge Prompts

This directory contains customisable prompts used for LLM extraction.

## Files

- ` + "`entity_extraction.txt`" + ` - System prompt for biomedical entity extraction
- ` + "`relation_extraction.txt`" + ` - System prompt for relationship extraction
- ` + "`classification.txt`" + ` - System prompt for title+abstract classification
- ` + "`entity_review.txt`" + ` - Appended to ask the model to re-check a previous extraction

## Customisation

Edit any file to customise LLM behaviour. Changes take effect on the next
command.

## Format Placeholders

` + "`entity_review.txt`" + ` uses a Go fmt placeholder:
- ` + "`%s`" + ` - The JSON of the previously extracted entities

Ensure customised prompts maintain placeholders in the correct positions.
`
	return os.WriteFile(path, []byte(content), 0600)
}
