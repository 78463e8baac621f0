package idx

var NewAt = newAt
