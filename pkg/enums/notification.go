package enums

// NotificationType labels in-app notification rows.
type NotificationType string

const (
	NotificationReservation NotificationType = "reservation"
	NotificationModeration  NotificationType = "moderation"
	NotificationOrder       NotificationType = "order"
	NotificationAchievement NotificationType = "achievement"
	NotificationSystem      NotificationType = "system"
)
