package store

import (
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/tawjihai/tawjih/internal/model"
)

// PasswordCost is the bcrypt cost used for stored password hashes.
var PasswordCost = bcrypt.DefaultCost

// HashPassword returns the bcrypt hash of a plaintext password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func agreementOptions(prefix string) []model.Option {
	labels := []string{"Strongly Disagree", "Disagree", "Neutral", "Agree", "Strongly Agree"}
	return scaleOptions(prefix, labels)
}

func frequencyOptions(prefix string) []model.Option {
	labels := []string{"Not at all", "A little bit", "Somewhat", "Quite a bit", "Very much"}
	return scaleOptions(prefix, labels)
}

func scaleOptions(prefix string, labels []string) []model.Option {
	opts := make([]model.Option, len(labels))
	for i, label := range labels {
		opts[i] = model.Option{ID: fmt.Sprintf("%so%d", prefix, i+1), Text: label, Value: i + 1}
	}
	return opts
}

func highSchoolStep(skills ...string) model.PathwayStep {
	return model.PathwayStep{
		Title:         "High School",
		Description:   "Basic education providing foundation for future studies.",
		Duration:      "3 years",
		KeySkills:     skills,
		EstimatedCost: "Free (Public)",
	}
}

// Seed loads the sample catalog, demo accounts and demo activity.
func (s *Store) Seed() error {
	personality := s.CreateQuiz(model.Quiz{
		Title:          "Personality Assessment",
		Description:    "Discover your personality traits and how they align with different career paths.",
		Type:           model.QuizPersonality,
		TotalQuestions: 15,
		Language:       "en",
	})
	skills := s.CreateQuiz(model.Quiz{
		Title:          "Skills & Interests",
		Description:    "Identify your strengths and interests to find careers that you'll love.",
		Type:           model.QuizSkills,
		TotalQuestions: 15,
		Language:       "en",
	})

	for i, text := range []string{
		"I enjoy solving complex problems.",
		"I prefer working in teams rather than alone.",
		"I am good at explaining complex ideas to others.",
	} {
		s.CreateQuestion(model.Question{
			QuizID:   personality.ID,
			Text:     text,
			Order:    i + 1,
			Options:  agreementOptions(fmt.Sprintf("p%d", i+1)),
			Language: "en",
		})
	}
	for i, text := range []string{
		"I am skilled at using computers and technology.",
		"I enjoy creative activities like art, music, or writing.",
		"I am good at analyzing data and numbers.",
	} {
		s.CreateQuestion(model.Question{
			QuizID:   skills.ID,
			Text:     text,
			Order:    i + 1,
			Options:  frequencyOptions(fmt.Sprintf("s%d", i+1)),
			Language: "en",
		})
	}

	softwareEngineer := s.CreateCareer(model.Career{
		Title:          "Software Engineer",
		Description:    "Create and develop applications and systems that solve problems.",
		SkillsRequired: []string{"problem_solving", "creativity", "logic"},
		EducationPathway: model.EducationPathway{Steps: []model.PathwayStep{
			highSchoolStep("Mathematics", "Science"),
			{
				Title:         "Computer Science Degree",
				Description:   "A bachelor's degree in Computer Science provides the fundamental knowledge needed for software development careers.",
				Duration:      "4 years",
				KeySkills:     []string{"Programming", "Algorithms"},
				EstimatedCost: "20,000 - 40,000 MAD",
				Current:       true,
			},
			{
				Title:         "Junior Developer",
				Description:   "Entry-level position to gain practical experience.",
				Duration:      "1-3 years",
				KeySkills:     []string{"Coding", "Teamwork"},
				EstimatedCost: "N/A",
			},
			{
				Title:         "Senior Engineer",
				Description:   "Advanced position leading projects and mentoring juniors.",
				Duration:      "Ongoing",
				KeySkills:     []string{"Architecture", "Leadership"},
				EstimatedCost: "N/A",
			},
		}},
		JobProspects: "Excellent in Morocco with growing tech sector.",
		Language:     "en",
	})
	dataScientist := s.CreateCareer(model.Career{
		Title:          "Data Scientist",
		Description:    "Analyze complex data to help businesses make better decisions.",
		SkillsRequired: []string{"analytics", "mathematics", "research"},
		EducationPathway: model.EducationPathway{Steps: []model.PathwayStep{
			highSchoolStep("Mathematics", "Science"),
			{
				Title:         "Mathematics or Statistics Degree",
				Description:   "A bachelor's degree provides the foundational knowledge of statistics and mathematics.",
				Duration:      "4 years",
				KeySkills:     []string{"Statistics", "Mathematics"},
				EstimatedCost: "20,000 - 40,000 MAD",
				Current:       true,
			},
			{
				Title:         "Data Analyst",
				Description:   "Entry-level position to gain practical experience with data.",
				Duration:      "1-2 years",
				KeySkills:     []string{"Data Analysis", "SQL"},
				EstimatedCost: "N/A",
			},
			{
				Title:         "Data Scientist",
				Description:   "Advanced position developing predictive models and algorithms.",
				Duration:      "Ongoing",
				KeySkills:     []string{"Machine Learning", "Big Data"},
				EstimatedCost: "N/A",
			},
		}},
		JobProspects: "Growing demand in financial and tech sectors.",
		Language:     "en",
	})
	businessManager := s.CreateCareer(model.Career{
		Title:          "Business Manager",
		Description:    "Lead teams and oversee operations to achieve business goals.",
		SkillsRequired: []string{"leadership", "communication", "strategy"},
		EducationPathway: model.EducationPathway{Steps: []model.PathwayStep{
			highSchoolStep("Mathematics", "Language"),
			{
				Title:         "Business Administration Degree",
				Description:   "A bachelor's degree in Business provides the core knowledge of business operations.",
				Duration:      "4 years",
				KeySkills:     []string{"Economics", "Management"},
				EstimatedCost: "25,000 - 45,000 MAD",
				Current:       true,
			},
			{
				Title:         "Management Trainee",
				Description:   "Entry-level position to learn business operations.",
				Duration:      "1-2 years",
				KeySkills:     []string{"Project Management", "Communication"},
				EstimatedCost: "N/A",
			},
			{
				Title:         "Business Manager",
				Description:   "Senior position overseeing business units or departments.",
				Duration:      "Ongoing",
				KeySkills:     []string{"Strategic Planning", "Leadership"},
				EstimatedCost: "N/A",
			},
		}},
		JobProspects: "Steady demand across multiple industries.",
		Language:     "en",
	})

	demo, err := s.seedUser("demo", "demo123", "Amal Benkada", model.UserRoleStudent)
	if err != nil {
		return err
	}
	if _, err := s.seedUser("teacher", "teacher123", "Mehdi Ouazzani", model.UserRoleTeacher); err != nil {
		return err
	}

	done := s.CreateUserQuiz(model.UserQuiz{
		UserID:    demo.ID,
		QuizID:    personality.ID,
		Completed: true,
		Progress:  100,
		Results: model.QuizResults{
			Answers: []model.Answer{{QuestionID: 1, Answer: "5"}, {QuestionID: 2, Answer: "3"}, {QuestionID: 3, Answer: "4"}},
			Traits:  map[string]int{"analytical": 80, "social": 60, "creative": 75},
		},
	})
	if _, err := s.UpdateUserQuiz(done.ID, func(uq *model.UserQuiz) error {
		completedAt := s.now()
		uq.CompletedAt = &completedAt
		return nil
	}); err != nil {
		return err
	}
	s.CreateUserQuiz(model.UserQuiz{
		UserID:   demo.ID,
		QuizID:   skills.ID,
		Progress: 45,
		Results: model.QuizResults{
			Answers: []model.Answer{{QuestionID: 4, Answer: "5"}, {QuestionID: 5, Answer: "2"}},
		},
	})

	s.CreateUserCareer(model.UserCareer{UserID: demo.ID, CareerID: softwareEngineer.ID, MatchPercentage: 95, IsFavorite: true})
	s.CreateUserCareer(model.UserCareer{UserID: demo.ID, CareerID: dataScientist.ID, MatchPercentage: 87})
	s.CreateUserCareer(model.UserCareer{UserID: demo.ID, CareerID: businessManager.ID, MatchPercentage: 82})

	now := s.now()
	s.CreateConversation(demo.ID,
		model.AiMessage{
			Role:      model.RoleAssistant,
			Content:   "Hi! I'm Maryam, your AI counselor. I'm here to help you explore careers and education paths. What would you like to know about today?",
			Timestamp: now.Add(-time.Hour).UnixMilli(),
		},
		model.AiMessage{
			Role:      model.RoleUser,
			Content:   "I'm interested in computer science, but I'm not sure which specific career path to choose. Can you help me understand my options?",
			Timestamp: now.Add(-3500 * time.Second).UnixMilli(),
		},
		model.AiMessage{
			Role:    model.RoleAssistant,
			Content: "Absolutely! Based on your quiz results, you have strengths in problem-solving and creativity, which are excellent for computer science. In this field, you could consider:\n\n" +
				"- Software Development - Building applications and websites\n" +
				"- Data Science - Analyzing data to extract insights\n" +
				"- Cybersecurity - Protecting systems from threats\n" +
				"- AI/Machine Learning - Creating intelligent systems\n\n" +
				"Would you like me to explain any of these in more detail?",
			Timestamp: now.Add(-3400 * time.Second).UnixMilli(),
		},
	)

	slog.Info("seeded sample data", "quizzes", 2, "careers", 3, "users", 2)
	return nil
}

func (s *Store) seedUser(username, password, fullName string, role model.UserRole) (model.User, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return model.User{}, err
	}
	u, err := s.CreateUser(model.User{
		Username:     username,
		PasswordHash: hash,
		FullName:     fullName,
		Role:         role,
		Language:     "en",
	})
	if err != nil {
		return model.User{}, fmt.Errorf("seed user %s: %w", username, err)
	}
	return u, nil
}
