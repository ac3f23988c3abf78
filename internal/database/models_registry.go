package database

import "rockae/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.UserRole{},
		&models.User{},
		&models.Tag{},
		&models.UserProfile{},
		&models.Community{},
		&models.CommunityMember{},
		&models.CommunityLike{},
		&models.PaymentPlan{},
		&models.UserPaymentPlan{},
		&models.CommunityFeaturedContent{},
		&models.BlogPost{},
		&models.CommunityBlogPost{},
		&models.CommunityBlogPostReply{},
		&models.Forum{},
		&models.Post{},
		&models.PostAttachment{},
		&models.PostLike{},
		&models.Conversation{},
		&models.ConversationParticipant{},
		&models.Message{},
		&models.Classroom{},
		&models.ClassroomContent{},
		&models.ClassroomAttachment{},
		&models.ClassroomContentCompletion{},
		&models.ClassroomCertificate{},
		&models.CommunityFeedback{},
		&models.CommunityLeaveReason{},
		&models.Meeting{},
		&models.Poll{},
		&models.PollOption{},
		&models.PollVote{},
		&models.PublicFeed{},
		&models.PublicFeedAttachment{},
		&models.PublicFeedLike{},
		&models.Quiz{},
		&models.QuizGenerationJob{},
		&models.QuizSubmission{},
		&models.Wheel{},
		&models.WheelParticipant{},
		&models.WheelHandoff{},
		&models.WheelHandoffAttachment{},
		&models.AppSubscriptionTier{},
		&models.AppSubscription{},
		&models.StorageUsage{},
		&models.CommunityMemberSubscription{},
		&models.PaymentTransaction{},
	}
}

// TableNames lists the table backing every persistent model, in registry order.
func TableNames() []string {
	type tabler interface{ TableName() string }
	names := make([]string, 0, len(PersistentModels()))
	for _, m := range PersistentModels() {
		if t, ok := m.(tabler); ok {
			names = append(names, t.TableName())
		}
	}
	return names
}
