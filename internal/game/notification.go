package game

// NotificationCode identifies a game state change sent to a participant.
type NotificationCode string

const (
	CodeNotifyGameBusy             NotificationCode = "GAME_BUSY"
	CodeNotifyWaitForOpponent      NotificationCode = "WAIT_FOR_OPPONENT"
	CodeNotifyYouWon               NotificationCode = "YOU_WON"
	CodeNotifyYouLost              NotificationCode = "YOU_LOST"
	CodeNotifyOpponentDisconnected NotificationCode = "OPPONENT_DISCONNECTED"
)

// Notification is a state change event addressed to one participant.
type Notification struct {
	Code NotificationCode
	Text string
}

var (
	NotifyGameBusy = Notification{
		Code: CodeNotifyGameBusy,
		Text: "The game is busy with two players. Please try again later",
	}
	NotifyWaitForOpponent = Notification{
		Code: CodeNotifyWaitForOpponent,
		Text: "Please wait for another user to join the game. You can still send your first Number anyway.",
	}
	NotifyYouWon = Notification{
		Code: CodeNotifyYouWon,
		Text: "The game is over, you are the winner.",
	}
	NotifyYouLost = Notification{
		Code: CodeNotifyYouLost,
		Text: "The game is over, you lost.",
	}
	NotifyOpponentDisconnected = Notification{
		Code: CodeNotifyOpponentDisconnected,
		Text: "The game is over, because the other player disconnected.",
	}
)
