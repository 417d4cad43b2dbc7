package knowledgegraph

import "github.com/giygas/pharmasearch/entities"

const seedSource = "curated_seed"

var (
	bayer       = entities.Company{Name: "Bayer", Headquarters: "Leverkusen, Germany", Size: "large"}
	haleon      = entities.Company{Name: "Haleon", Headquarters: "Weybridge, United Kingdom", Size: "large"}
	kenvue      = entities.Company{Name: "Kenvue", Headquarters: "Skillman, United States", Size: "large"}
	pfizer      = entities.Company{Name: "Pfizer", Headquarters: "New York, United States", Size: "large"}
	regeneron   = entities.Company{Name: "Regeneron", Headquarters: "Tarrytown, United States", Size: "large"}
	leoPharma   = entities.Company{Name: "LEO Pharma", Headquarters: "Ballerup, Denmark", Size: "mid"}
	eliLilly    = entities.Company{Name: "Eli Lilly", Headquarters: "Indianapolis, United States", Size: "large"}
	abbvie      = entities.Company{Name: "AbbVie", Headquarters: "North Chicago, United States", Size: "large"}
	amgen       = entities.Company{Name: "Amgen", Headquarters: "Thousand Oaks, United States", Size: "large"}
	merck       = entities.Company{Name: "Merck & Co.", Headquarters: "Rahway, United States", Size: "large"}
	bms         = entities.Company{Name: "Bristol-Myers Squibb", Headquarters: "Princeton, United States", Size: "large"}
	novoNordisk = entities.Company{Name: "Novo Nordisk", Headquarters: "Bagsvaerd, Denmark", Size: "large"}
)

func drug(name string, aliases []string, mechanism string, areas []string, modality string, company entities.Company, indications, competitors []string) entities.DrugEntity {
	c := company
	return entities.DrugEntity{
		Kind:             entities.KindDrug,
		Name:             name,
		Aliases:          aliases,
		Mechanism:        mechanism,
		TherapeuticAreas: areas,
		Modality:         modality,
		Company:          &c,
		Indications:      indications,
		Competitors:      competitors,
		Metadata:         entities.Provenance{Sources: []string{seedSource}, Confidence: 1},
	}
}

func indication(name string, aliases []string, pathophysiology string, areas []string, related []string) entities.DrugEntity {
	return entities.DrugEntity{
		Kind:              entities.KindIndication,
		Name:              name,
		Aliases:           aliases,
		Mechanism:         pathophysiology,
		TherapeuticAreas:  areas,
		RelatedConditions: related,
		Metadata:          entities.Provenance{Sources: []string{seedSource}, Confidence: 1},
	}
}

func rel(source string, t entities.RelationshipType, target string, strength float64, evidence, rationale string) SeedEdge {
	return SeedEdge{
		Source:   source,
		Target:   target,
		Type:     t,
		Strength: strength,
		Properties: entities.EdgeProperties{
			Rationale:     rationale,
			EvidenceLevel: evidence,
		},
	}
}

func mapping(drugName, indicationName string, direct, mechanism, area []entities.NodeID) entities.CompetitiveMapping {
	return entities.CompetitiveMapping{
		DrugID:                     entities.NodeID(drugName),
		IndicationID:               entities.NodeID(indicationName),
		DirectCompetitors:          direct,
		MechanismCompetitors:       mechanism,
		TherapeuticAreaCompetitors: area,
	}
}

type ids = []entities.NodeID

// DefaultSeed returns the curated pharmaceutical knowledge the graph starts
// with. Aspirin deliberately has a single outgoing edge (similar_to
// ibuprofen); its indications are carried on the node only.
func DefaultSeed() Seed {
	const (
		clinical    = entities.EvidenceClinical
		preclinical = entities.EvidencePreclinical
		observed    = entities.EvidenceObservational
	)

	return Seed{
		Entities: []entities.DrugEntity{
			// Analgesics and anti-inflammatories
			drug("Aspirin", []string{"acetylsalicylic acid", "ASA", "Bayer Aspirin", "Ecotrin"},
				"irreversible COX-1 and COX-2 inhibition", []string{"pain", "inflammation", "cardiovascular"},
				"small_molecule", bayer,
				[]string{"Pain", "Inflammation", "Cardiovascular Disease"},
				[]string{"Ibuprofen", "Naproxen", "Acetaminophen"}),
			drug("Ibuprofen", []string{"Advil", "Motrin", "Nurofen"},
				"reversible COX-1 and COX-2 inhibition", []string{"pain", "inflammation"},
				"small_molecule", haleon,
				[]string{"Pain", "Inflammation"},
				[]string{"Naproxen", "Aspirin", "Acetaminophen", "Celecoxib"}),
			drug("Naproxen", []string{"Aleve", "Naprosyn", "naproxen sodium"},
				"reversible COX-1 and COX-2 inhibition", []string{"pain", "inflammation"},
				"small_molecule", bayer,
				[]string{"Pain", "Inflammation"},
				[]string{"Ibuprofen", "Celecoxib"}),
			drug("Celecoxib", []string{"Celebrex", "SC-58635"},
				"selective COX-2 inhibition", []string{"pain", "inflammation", "rheumatology"},
				"small_molecule", pfizer,
				[]string{"Pain", "Rheumatoid Arthritis"},
				[]string{"Naproxen", "Ibuprofen"}),
			drug("Acetaminophen", []string{"paracetamol", "Tylenol", "APAP"},
				"central COX inhibition and TRPV1 modulation", []string{"pain"},
				"small_molecule", kenvue,
				[]string{"Pain"},
				[]string{"Ibuprofen", "Aspirin"}),

			// Cardiometabolic
			drug("Warfarin", []string{"Coumadin", "Jantoven"},
				"vitamin K epoxide reductase inhibition", []string{"cardiovascular", "hematology"},
				"small_molecule", bms,
				[]string{"Cardiovascular Disease"},
				nil),
			drug("Atorvastatin", []string{"Lipitor"},
				"HMG-CoA reductase inhibition", []string{"cardiovascular", "metabolic"},
				"small_molecule", pfizer,
				[]string{"Cardiovascular Disease"},
				nil),
			drug("Metformin", []string{"Glucophage", "metformin hydrochloride"},
				"hepatic gluconeogenesis suppression via AMPK activation", []string{"metabolic", "endocrinology"},
				"small_molecule", bms,
				[]string{"Type 2 Diabetes"},
				[]string{"Semaglutide"}),
			drug("Semaglutide", []string{"Ozempic", "Wegovy", "Rybelsus", "NN9535"},
				"GLP-1 receptor agonism", []string{"metabolic", "endocrinology", "cardiovascular"},
				"peptide", novoNordisk,
				[]string{"Type 2 Diabetes", "Obesity"},
				[]string{"Tirzepatide", "Liraglutide"}),
			drug("Tirzepatide", []string{"Mounjaro", "Zepbound", "LY3298176"},
				"dual GIP and GLP-1 receptor agonism", []string{"metabolic", "endocrinology"},
				"peptide", eliLilly,
				[]string{"Type 2 Diabetes", "Obesity"},
				[]string{"Semaglutide", "Liraglutide"}),
			drug("Liraglutide", []string{"Victoza", "Saxenda", "NN2211"},
				"GLP-1 receptor agonism", []string{"metabolic", "endocrinology"},
				"peptide", novoNordisk,
				[]string{"Type 2 Diabetes", "Obesity"},
				[]string{"Semaglutide", "Tirzepatide"}),

			// Immunology and dermatology
			drug("Dupilumab", []string{"Dupixent", "REGN668", "SAR231893"},
				"IL-4 receptor alpha antagonist blocking IL-4 and IL-13 signaling", []string{"immunology", "dermatology", "respiratory"},
				"monoclonal_antibody", regeneron,
				[]string{"Atopic Dermatitis", "Asthma"},
				[]string{"Tralokinumab", "Lebrikizumab", "Upadacitinib", "Abrocitinib"}),
			drug("Tralokinumab", []string{"Adbry", "Adtralza", "CAT-354"},
				"IL-13 neutralizing antibody", []string{"immunology", "dermatology"},
				"monoclonal_antibody", leoPharma,
				[]string{"Atopic Dermatitis"},
				[]string{"Dupilumab", "Lebrikizumab"}),
			drug("Lebrikizumab", []string{"Ebglyss", "LY3650150"},
				"IL-13 neutralizing antibody", []string{"immunology", "dermatology"},
				"monoclonal_antibody", eliLilly,
				[]string{"Atopic Dermatitis"},
				[]string{"Dupilumab", "Tralokinumab"}),
			drug("Upadacitinib", []string{"Rinvoq", "ABT-494"},
				"selective JAK1 inhibition", []string{"immunology", "dermatology", "rheumatology"},
				"small_molecule", abbvie,
				[]string{"Atopic Dermatitis", "Rheumatoid Arthritis", "Psoriasis"},
				[]string{"Abrocitinib", "Dupilumab", "Tofacitinib", "Adalimumab"}),
			drug("Abrocitinib", []string{"Cibinqo", "PF-04965842"},
				"selective JAK1 inhibition", []string{"immunology", "dermatology"},
				"small_molecule", pfizer,
				[]string{"Atopic Dermatitis"},
				[]string{"Upadacitinib", "Dupilumab"}),
			drug("Tofacitinib", []string{"Xeljanz", "CP-690550"},
				"pan-JAK inhibition of JAK1 and JAK3", []string{"immunology", "rheumatology"},
				"small_molecule", pfizer,
				[]string{"Rheumatoid Arthritis"},
				[]string{"Upadacitinib", "Adalimumab"}),
			drug("Adalimumab", []string{"Humira", "D2E7", "adalimumab-atto"},
				"TNF-alpha neutralizing antibody", []string{"immunology", "rheumatology", "dermatology"},
				"monoclonal_antibody", abbvie,
				[]string{"Rheumatoid Arthritis", "Psoriasis"},
				[]string{"Etanercept", "Upadacitinib", "Tofacitinib"}),
			drug("Etanercept", []string{"Enbrel", "TNFR-Fc"},
				"TNF-alpha decoy receptor fusion protein", []string{"immunology", "rheumatology", "dermatology"},
				"fusion_protein", amgen,
				[]string{"Rheumatoid Arthritis", "Psoriasis"},
				[]string{"Adalimumab"}),

			// Oncology
			drug("Pembrolizumab", []string{"Keytruda", "MK-3475", "lambrolizumab"},
				"PD-1 immune checkpoint inhibition", []string{"oncology"},
				"monoclonal_antibody", merck,
				[]string{"Non-Small Cell Lung Cancer", "Melanoma"},
				[]string{"Nivolumab"}),
			drug("Nivolumab", []string{"Opdivo", "BMS-936558", "ONO-4538"},
				"PD-1 immune checkpoint inhibition", []string{"oncology"},
				"monoclonal_antibody", bms,
				[]string{"Non-Small Cell Lung Cancer", "Melanoma"},
				[]string{"Pembrolizumab"}),

			// Indications
			indication("Atopic Dermatitis", []string{"eczema", "atopic eczema", "AD"},
				"type 2 inflammation with skin barrier dysfunction", []string{"dermatology", "immunology"},
				[]string{"Asthma", "Psoriasis"}),
			indication("Asthma", []string{"bronchial asthma", "allergic asthma"},
				"chronic airway inflammation and hyperresponsiveness", []string{"respiratory", "immunology"},
				[]string{"Atopic Dermatitis"}),
			indication("Rheumatoid Arthritis", []string{"RA", "rheumatoid disease"},
				"autoimmune synovial inflammation", []string{"rheumatology", "immunology"},
				[]string{"Psoriasis", "Inflammation"}),
			indication("Psoriasis", []string{"plaque psoriasis", "psoriasis vulgaris"},
				"IL-23/IL-17 driven keratinocyte hyperproliferation", []string{"dermatology", "immunology"},
				[]string{"Atopic Dermatitis", "Rheumatoid Arthritis"}),
			indication("Type 2 Diabetes", []string{"T2D", "type 2 diabetes mellitus", "T2DM", "NIDDM", "adult-onset diabetes"},
				"insulin resistance with progressive beta cell failure", []string{"metabolic", "endocrinology"},
				[]string{"Obesity", "Cardiovascular Disease"}),
			indication("Obesity", []string{"overweight", "chronic weight management"},
				"chronic energy imbalance with adipose tissue expansion", []string{"metabolic", "endocrinology"},
				[]string{"Type 2 Diabetes"}),
			indication("Cardiovascular Disease", []string{"CVD", "heart disease", "atherosclerotic cardiovascular disease", "ASCVD"},
				"atherosclerosis and thrombosis of the coronary and peripheral arteries", []string{"cardiovascular"},
				[]string{"Type 2 Diabetes"}),
			indication("Non-Small Cell Lung Cancer", []string{"NSCLC", "non-small-cell lung carcinoma", "lung adenocarcinoma"},
				"malignant epithelial lung tumors", []string{"oncology", "respiratory"},
				nil),
			indication("Melanoma", []string{"malignant melanoma", "cutaneous melanoma"},
				"malignant transformation of melanocytes", []string{"oncology", "dermatology"},
				nil),
			indication("Pain", []string{"acute pain", "chronic pain", "analgesia"},
				"nociceptive and inflammatory signaling", []string{"pain", "neurology"},
				[]string{"Inflammation"}),
			indication("Inflammation", []string{"inflammatory disorders", "inflammatory conditions"},
				"prostaglandin mediated inflammatory response", []string{"inflammation", "immunology"},
				[]string{"Pain", "Rheumatoid Arthritis"}),
		},

		Edges: []SeedEdge{
			rel("Aspirin", entities.RelSimilarTo, "Ibuprofen", 0.8, clinical, "both non-selective COX inhibitors"),

			rel("Ibuprofen", entities.RelSimilarTo, "Naproxen", 0.85, clinical, "propionic acid NSAIDs"),
			rel("Ibuprofen", entities.RelInteractsWith, "Aspirin", 0.6, clinical, "blocks aspirin's antiplatelet effect"),
			rel("Ibuprofen", entities.RelTreats, "Pain", 0.9, clinical, ""),
			rel("Ibuprofen", entities.RelTreats, "Inflammation", 0.8, clinical, ""),
			rel("Ibuprofen", entities.RelCompetesWith, "Acetaminophen", 0.7, observed, "over-the-counter analgesic market"),
			rel("Naproxen", entities.RelSimilarTo, "Ibuprofen", 0.85, clinical, "propionic acid NSAIDs"),
			rel("Naproxen", entities.RelTreats, "Pain", 0.85, clinical, ""),
			rel("Naproxen", entities.RelCompetesWith, "Celecoxib", 0.6, observed, ""),
			rel("Celecoxib", entities.RelSimilarTo, "Naproxen", 0.6, clinical, "COX inhibition, COX-2 selective"),
			rel("Celecoxib", entities.RelTreats, "Rheumatoid Arthritis", 0.7, clinical, ""),
			rel("Celecoxib", entities.RelTreats, "Pain", 0.8, clinical, ""),
			rel("Acetaminophen", entities.RelAlternativeTo, "Ibuprofen", 0.7, clinical, "analgesic without GI bleeding risk"),
			rel("Acetaminophen", entities.RelTreats, "Pain", 0.85, clinical, ""),

			rel("Warfarin", entities.RelInteractsWith, "Aspirin", 0.9, clinical, "additive bleeding risk"),
			rel("Warfarin", entities.RelTreats, "Cardiovascular Disease", 0.75, clinical, "thromboembolism prevention"),
			rel("Atorvastatin", entities.RelTreats, "Cardiovascular Disease", 0.9, clinical, ""),
			rel("Atorvastatin", entities.RelCombinedWith, "Aspirin", 0.5, clinical, "secondary prevention"),
			rel("Metformin", entities.RelTreats, "Type 2 Diabetes", 0.9, clinical, "first line therapy"),
			rel("Semaglutide", entities.RelTreats, "Type 2 Diabetes", 0.95, clinical, ""),
			rel("Semaglutide", entities.RelTreats, "Obesity", 0.9, clinical, ""),
			rel("Semaglutide", entities.RelCompetesWith, "Tirzepatide", 0.9, observed, "incretin market leaders"),
			rel("Semaglutide", entities.RelSimilarTo, "Liraglutide", 0.9, clinical, "GLP-1 analogues"),
			rel("Semaglutide", entities.RelDerivedFrom, "Liraglutide", 0.8, preclinical, "acylated liraglutide backbone"),
			rel("Semaglutide", entities.RelCombinedWith, "Metformin", 0.6, clinical, ""),
			rel("Liraglutide", entities.RelPrecursorTo, "Semaglutide", 0.8, preclinical, ""),
			rel("Liraglutide", entities.RelTreats, "Type 2 Diabetes", 0.85, clinical, ""),
			rel("Liraglutide", entities.RelTreats, "Obesity", 0.8, clinical, ""),
			rel("Tirzepatide", entities.RelTreats, "Type 2 Diabetes", 0.95, clinical, ""),
			rel("Tirzepatide", entities.RelTreats, "Obesity", 0.95, clinical, ""),

			rel("Dupilumab", entities.RelTreats, "Atopic Dermatitis", 0.95, clinical, ""),
			rel("Dupilumab", entities.RelTreats, "Asthma", 0.85, clinical, ""),
			rel("Dupilumab", entities.RelCompetesWith, "Tralokinumab", 0.8, observed, ""),
			rel("Dupilumab", entities.RelCompetesWith, "Lebrikizumab", 0.8, observed, ""),
			rel("Dupilumab", entities.RelCompetesWith, "Upadacitinib", 0.7, observed, ""),
			rel("Dupilumab", entities.RelCompetesWith, "Abrocitinib", 0.65, observed, ""),
			rel("Tralokinumab", entities.RelTreats, "Atopic Dermatitis", 0.85, clinical, ""),
			rel("Tralokinumab", entities.RelSimilarTo, "Lebrikizumab", 0.9, clinical, "both neutralize IL-13"),
			rel("Lebrikizumab", entities.RelTreats, "Atopic Dermatitis", 0.85, clinical, ""),
			rel("Upadacitinib", entities.RelTreats, "Atopic Dermatitis", 0.85, clinical, ""),
			rel("Upadacitinib", entities.RelTreats, "Rheumatoid Arthritis", 0.9, clinical, ""),
			rel("Upadacitinib", entities.RelSimilarTo, "Abrocitinib", 0.85, clinical, "selective JAK1 inhibitors"),
			rel("Upadacitinib", entities.RelSimilarTo, "Tofacitinib", 0.7, clinical, "JAK inhibitors"),
			rel("Upadacitinib", entities.RelCompetesWith, "Adalimumab", 0.75, observed, ""),
			rel("Abrocitinib", entities.RelTreats, "Atopic Dermatitis", 0.8, clinical, ""),
			rel("Tofacitinib", entities.RelTreats, "Rheumatoid Arthritis", 0.85, clinical, ""),
			rel("Tofacitinib", entities.RelCompetesWith, "Adalimumab", 0.7, observed, ""),
			rel("Adalimumab", entities.RelTreats, "Rheumatoid Arthritis", 0.9, clinical, ""),
			rel("Adalimumab", entities.RelTreats, "Psoriasis", 0.85, clinical, ""),
			rel("Adalimumab", entities.RelSimilarTo, "Etanercept", 0.8, clinical, "TNF-alpha blockers"),
			rel("Etanercept", entities.RelTreats, "Rheumatoid Arthritis", 0.85, clinical, ""),
			rel("Etanercept", entities.RelTreats, "Psoriasis", 0.75, clinical, ""),

			rel("Pembrolizumab", entities.RelTreats, "Non-Small Cell Lung Cancer", 0.95, clinical, ""),
			rel("Pembrolizumab", entities.RelTreats, "Melanoma", 0.9, clinical, ""),
			rel("Pembrolizumab", entities.RelCompetesWith, "Nivolumab", 0.9, observed, ""),
			rel("Pembrolizumab", entities.RelSimilarTo, "Nivolumab", 0.9, clinical, "anti PD-1 antibodies"),
			rel("Nivolumab", entities.RelTreats, "Melanoma", 0.9, clinical, ""),
			rel("Nivolumab", entities.RelTreats, "Non-Small Cell Lung Cancer", 0.85, clinical, ""),

			rel("Obesity", entities.RelCauses, "Type 2 Diabetes", 0.7, observed, ""),
			rel("Type 2 Diabetes", entities.RelCauses, "Cardiovascular Disease", 0.6, observed, ""),
			rel("Inflammation", entities.RelCauses, "Pain", 0.6, clinical, ""),
			rel("Atopic Dermatitis", entities.RelSimilarTo, "Asthma", 0.5, observed, "atopic march"),
		},

		Mappings: []entities.CompetitiveMapping{
			mapping("Dupilumab", "Atopic Dermatitis",
				ids{"Lebrikizumab", "Tralokinumab"}, ids{"Abrocitinib", "Upadacitinib"}, nil),
			mapping("Semaglutide", "Type 2 Diabetes",
				ids{"Tirzepatide", "Liraglutide"}, nil, ids{"Metformin"}),
			mapping("Semaglutide", "Obesity",
				ids{"Tirzepatide"}, ids{"Liraglutide"}, nil),
			mapping("Pembrolizumab", "Non-Small Cell Lung Cancer",
				ids{"Nivolumab"}, nil, nil),
			mapping("Adalimumab", "Rheumatoid Arthritis",
				ids{"Etanercept"}, ids{"Upadacitinib", "Tofacitinib"}, ids{"Celecoxib"}),
		},
	}
}
