package postgres

import "gorm.io/gorm"

type Repositories struct {
	Cases        *caseRepository
	Episodes     *episodeRepository
	Messages     *messageRepository
	IssueEvents  *issueEventRepository
	StatusEvents *statusEventRepository
	Agents       *agentRepository
	Summaries    *summaryRepository
}

func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Cases:        &caseRepository{db: db},
		Episodes:     &episodeRepository{db: db},
		Messages:     &messageRepository{db: db},
		IssueEvents:  &issueEventRepository{db: db},
		StatusEvents: &statusEventRepository{db: db},
		Agents:       &agentRepository{db: db},
		Summaries:    &summaryRepository{db: db},
	}
}
